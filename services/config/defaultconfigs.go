package config

// Board configs. Keys become topics under "config/".

const cfgPico = `{
  "hal": {
    "devices": [
      {"id": "dht0", "type": "dht22", "params": {"pin": 2, "sample_every_ms": 5000}}
    ]
  },
  "report": {"alive_every_s": 30}
}`

const cfgPicoDHT11 = `{
  "hal": {
    "devices": [
      {"id": "dht0", "type": "dht11", "params": {"pin": 15, "start_low_ms": 20}}
    ]
  },
  "report": {"alive_every_s": 30}
}`

var embeddedConfigs = map[string][]byte{
	"pico":       []byte(cfgPico),
	"pico-dht11": []byte(cfgPicoDHT11),
}
