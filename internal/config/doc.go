// Package config handles configuration loading for wa-bridge.
//
// # Overview
//
// Configuration is loaded from YAML or TOML files with environment variable
// expansion. Every field has a default, so the bridge also runs with no file
// at all.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from the --config flag
//  2. Path from WA_BRIDGE_CONFIG environment variable
//  3. ~/.config/wa-bridge/config.yaml
//
// A path ending in .toml is decoded as TOML; anything else is YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	backend:
//	  url: "${WA_BACKEND_URL}"
//
// # Configuration Sections
//
//	server:
//	  http_addr: "localhost:3000"     # POST /send
//
//	backend:
//	  url: ""                         # full override, e.g. http://agent:8000/incoming
//	  host: "localhost"
//	  port_file: "fastapi_port.txt"   # trimmed integer written by the backend
//	  default_port: 8001
//	  path: "/incoming"
//	  timeout: "30s"
//
//	session:
//	  dir: "~/.local/share/wa-bridge/session"
//	  device_name: "wa-bridge"
//
//	bridge:
//	  markdown: false                 # convert markdown replies to WhatsApp markup
//	  ignore_status: true             # skip status@broadcast messages
//	  dedupe_ttl: "10m"
//	  dedupe_capacity: 10000
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Backend Port
//
// When backend.url is empty the forward URL is built as
// http://<host>:<port><path>, where port is read from port_file. A missing
// or malformed file falls back to default_port.
package config
