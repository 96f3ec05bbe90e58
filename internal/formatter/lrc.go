package formatter

import (
	"bufio"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/xmx/internal/models"
)

var (
	lrcTimeTag = regexp.MustCompile(`\[(\d{1,3}):(\d{2})(?:[.:](\d{1,3}))?\]`)
	// Xiami inlines per-word timings like <120>; they are dropped.
	lrcWordTag = regexp.MustCompile(`<\d+>`)
)

// LyricLine is one timed lyric line.
type LyricLine struct {
	At   time.Duration
	Text string
}

// ParseLRC extracts timed lines from LRC content, sorted by time.
//
// A line carrying several time tags yields one entry per tag. Untimed lines and metadata tags are skipped.
func ParseLRC(content string) []LyricLine {
	var lines []LyricLine
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		tags := lrcTimeTag.FindAllStringSubmatch(raw, -1)
		if len(tags) == 0 {
			continue
		}

		text := strings.TrimSpace(lrcWordTag.ReplaceAllString(lrcTimeTag.ReplaceAllString(raw, ""), ""))
		for _, tag := range tags {
			lines = append(lines, LyricLine{At: tagDuration(tag), Text: text})
		}
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].At < lines[j].At })
	return lines
}

func tagDuration(tag []string) time.Duration {
	mins, _ := strconv.Atoi(tag[1])
	secs, _ := strconv.Atoi(tag[2])
	d := time.Duration(mins)*time.Minute + time.Duration(secs)*time.Second

	if frac := tag[3]; frac != "" {
		n, _ := strconv.Atoi(frac)
		switch len(frac) {
		case 1:
			d += time.Duration(n) * 100 * time.Millisecond
		case 2:
			d += time.Duration(n) * 10 * time.Millisecond
		default:
			d += time.Duration(n) * time.Millisecond
		}
	}
	return d
}

// PlainLyric strips all tags, leaving one text line per timed line.
func PlainLyric(content string) string {
	lines := ParseLRC(content)
	if len(lines) == 0 {
		return strings.TrimSpace(content)
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// ExportLyric renders a lyric as an LRC file with title, artist and album tags for song.
func ExportLyric(song *models.Song, lyric *models.Lyric) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "[ti:%s]\n", song.Title)
	fmt.Fprintf(&b, "[ar:%s]\n", song.ArtistName())
	if song.Album.Name != "" {
		fmt.Fprintf(&b, "[al:%s]\n", song.Album.Name)
	}

	for _, l := range ParseLRC(lyric.Content) {
		m := l.At / time.Minute
		s := (l.At % time.Minute) / time.Second
		cs := (l.At % time.Second) / (10 * time.Millisecond)
		fmt.Fprintf(&b, "[%02d:%02d.%02d]%s\n", m, s, cs, l.Text)
	}
	return []byte(b.String())
}
