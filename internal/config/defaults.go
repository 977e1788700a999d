package config

var defaults = map[string]any{
	"secret":      "",
	"listen_addr": ":8080",
	"log_level":   "info",

	"allowed_networks": "",

	"barrier_open_sec": 15,
	"burn_ttl":         60,

	"operator_token_ttl": 60,  // minutes
	"device_token_ttl":   365, // days

	"base_url": "",

	"storage.sqlite.path": "storage.db",
}

func Defaults() map[string]any {
	values := make(map[string]any)
	for k, v := range defaults {
		values[k] = v
	}
	return values
}
