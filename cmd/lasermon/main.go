package main

import (
	"flag"
	"log"
	"strings"

	"github.com/robotalks/laserctl/pkg/l1/env"
	"github.com/robotalks/laserctl/pkg/l1/mqtt"
	"github.com/robotalks/laserctl/pkg/l1/msgs"
)

var (
	mqttURL = env.DefaultBrokerURL
	pattern = "#"
)

func init() {
	if url := env.Default().MQTTBrokerURL; url != "" {
		mqttURL = url
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&pattern, "topic", pattern, "Topic pattern to monitor, relative to the prefix.")
}

func handle(topic string, payload []byte) {
	switch {
	case strings.HasSuffix(topic, "/"+mqtt.TopicMeta):
		if len(payload) == 0 {
			log.Printf("%s: offline", topic)
		} else {
			log.Printf("%s: %s", topic, string(payload))
		}
	case strings.HasSuffix(topic, "/"+mqtt.TopicStatus):
		ev, err := msgs.DecodeStatusEvent(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: #%d %s", topic, ev.Seq, ev.Line())
	case strings.HasSuffix(topic, "/"+mqtt.TopicState):
		st, err := msgs.DecodeDeviceState(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, st.String())
	default:
		log.Printf("%s: %d bytes", topic, len(payload))
	}
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	q.Sub(pattern, mqtt.Handler(handle))
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
