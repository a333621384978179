package config

import (
	"eventdesk/utils"
	"fmt"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"
)

const auditTopic = "registration-events"

func CreateAuditTopic() error {
	broker := Env().KafkaBroker
	if broker == "" {
		return fmt.Errorf("KAFKA_BROKER environment variable not set")
	}

	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		return err
	}
	defer utils.Closer(conn)()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer utils.Closer(controllerConn)()

	topicConfig := kafka.TopicConfig{
		Topic:             auditTopic,
		NumPartitions:     1,
		ReplicationFactor: 1,
		ConfigEntries: []kafka.ConfigEntry{
			// 90 days retention, matching the support window for
			// payment disputes
			{
				ConfigName:  "retention.ms",
				ConfigValue: "7776000000",
			},
		},
	}

	return controllerConn.CreateTopics(topicConfig)
}

func GetAuditWriter() (*kafka.Writer, error) {
	broker := Env().KafkaBroker
	if broker == "" {
		return nil, fmt.Errorf("KAFKA_BROKER environment variable not set")
	}
	if err := CreateAuditTopic(); err != nil {
		return nil, err
	}
	return kafka.NewWriter(kafka.WriterConfig{
		Brokers: []string{broker},
		Topic:   auditTopic,
	}), nil
}
