package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case RoleClient:
		return clientTemplate, nil
	case RoleProxy:
		return proxyTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const clientTemplate = `[node]
id = "c0ffee01"
role = "client"

[mesh]
proxy = "a1b2c3d4"
max_text = 150

[wsp]
host_header = true
user_agent = "MAP/1.0"
decompile_capacity = 16384

[wdp]
budget = 120
reassembly_timeout = "30s"

[session]
gateway_port = 9200
exchange_timeout = "40s"
discovery_timeout = "8s"
discovery_retries = 5

[server]
addr = "127.0.0.1:9280"
cors_origins = ["http://localhost:3000"]

[log]
level = "info"
`

const proxyTemplate = `[node]
id = "a1b2c3d4"
role = "proxy"

[mesh]
contacts = ["c0ffee01"]
max_text = 150

[wdp]
budget = 120
reassembly_timeout = "30s"

[session]
gateway_port = 9200
relay_slots = 8
relay_expiry = "60s"

[server]
addr = ":9280"
cors_origins = []

[log]
level = "info"
`
