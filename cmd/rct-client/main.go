// Command rct-client polls object values from one RCT Power device (the
// config's server_address) over the network and writes each polling sweep
// as a line of JSON to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/rctpower/rctclient"
	"github.com/rctpower/rctclient/poller"
)

/*
Example config.json:

{
  "server_address": "192.168.1.50:8899",
  "interval": "2s",
  "objects": ["battery.soc", "battery.voltage", "dc_conv.dc_conv_struct[0].p_dc"]
}
*/

type jsonDuration time.Duration

func (d *jsonDuration) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid interval %q: %w", raw, err)
	}
	*d = jsonDuration(parsed)
	return nil
}

type config struct {
	ServerAddress string       `json:"server_address"`
	Interval      jsonDuration `json:"interval"`
	Objects       []string     `json:"objects"`
}

// usage: ./rct-client -config=config.json
func main() {
	var configLoc string
	flag.StringVar(&configLoc, "config", "config.json", "path to json configuration")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	rawConfig, err := os.ReadFile(configLoc) // #nosec G304
	if err != nil {
		logger.Error("reading config failed", "err", err)
		os.Exit(1)
	}

	var conf config
	if err := json.Unmarshal(rawConfig, &conf); err != nil {
		logger.Error("config json unmarshalling failed", "err", err)
		os.Exit(1)
	}
	if len(conf.Objects) == 0 {
		logger.Error("config has no objects to poll")
		os.Exit(1)
	}

	ids := make([]uint32, len(conf.Objects))
	for i, name := range conf.Objects {
		desc, err := rctclient.DefaultRegistry.ByName(name)
		if err != nil {
			logger.Error("unknown object name in config", "name", name, "err", err)
			os.Exit(1)
		}
		ids[i] = desc.ID
	}

	req := poller.Request{
		ServerAddress:   conf.ServerAddress,
		RequestInterval: time.Duration(conf.Interval),
		ObjectIDs:       ids,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	p := poller.NewPollerWithConfig([]poller.Request{req}, poller.Config{Logger: logger})
	go printResults(ctx, p.ResultChan)

	if err := p.Poll(ctx); err != nil {
		logger.Error("polling ended with failure", "err", err)
		os.Exit(1)
	}
	logger.Info("polling ended")
}

func printResults(ctx context.Context, results <-chan poller.Result) {
	for {
		select {
		case result := <-results:
			values := map[string]interface{}{}
			for _, v := range result.Values {
				desc, err := rctclient.DefaultRegistry.ByID(v.ID)
				name := fmt.Sprintf("%#08x", v.ID)
				if err == nil {
					name = desc.Name
				}
				values[name] = v.Value
			}
			if len(values) == 0 {
				continue
			}
			raw, err := json.Marshal(struct {
				Time   time.Time              `json:"time"`
				Values map[string]interface{} `json:"values"`
			}{
				Time:   result.Time,
				Values: values,
			})
			if err != nil {
				continue
			}
			fmt.Printf("%s\n", raw)
		case <-ctx.Done():
			return
		}
	}
}
