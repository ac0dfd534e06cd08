package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/scarabworks/scarab.go/pkg/mirror"
)

var (
	mqttURL = "mqtt://localhost:1883/scarab/"
)

func init() {
	if val := os.Getenv("SCARAB_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mirror.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err = q.Connect(); err != nil {
		log.Fatalln(err)
	}

	q.Sub("panel/#", mirror.Handler(func(topic string, payload []byte) {
		if !json.Valid(payload) {
			log.Printf("%s: bad payload: %q", topic, payload)
			return
		}
		log.Printf("%s: %s", topic, payload)
	}))
	<-(chan struct{})(nil)
}
