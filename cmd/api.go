package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/xmx/internal/services"
	"github.com/desertthunder/xmx/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) rawClient() (*services.XiamiService, error) {
	if r.xiami == nil {
		return nil, fmt.Errorf("%w: raw requests need the Xiami gateway client", shared.ErrServiceUnavailable)
	}
	return r.xiami, nil
}

// APIGet makes a direct GET request to the gateway
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}
	client, err := r.rawClient()
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)
	resp, err := client.Raw(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeRaw(resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request to the gateway
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}
	data := cmd.String("data")
	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
	}
	client, err := r.rawClient()
	if err != nil {
		return err
	}

	r.logger.Info("POST request", "path", path)
	resp, err := client.Raw(ctx, http.MethodPost, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeRaw(resp, true)
}

func (r *Runner) writeRaw(resp *services.RawResponse, pretty bool) error {
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}
