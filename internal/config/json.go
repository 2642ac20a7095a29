package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// jsonConfig mirrors [Config] with durations accepted either as strings
// ("30s", "1m") or as nanosecond numbers.
type jsonConfig struct {
	BaseURL        string   `json:"base_url"`
	SessionFile    string   `json:"session_file"`
	RequestTimeout Duration `json:"request_timeout"`
	JoinTimeout    Duration `json:"join_timeout"`
}

func parseJSON(jsonFilePath string) (*Config, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg jsonConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	return &Config{
		BaseURL:        jsonCfg.BaseURL,
		SessionFile:    jsonCfg.SessionFile,
		RequestTimeout: time.Duration(jsonCfg.RequestTimeout),
		JoinTimeout:    time.Duration(jsonCfg.JoinTimeout),
	}, nil
}

// Duration is a wrapper around time.Duration that supports JSON
// unmarshaling from strings like "1h" or "30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
