package service

import (
	"context"
	"fmt"
	"log"
	"testing"

	"eventdesk/client"
	"eventdesk/config"
	"eventdesk/repository"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	_ "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var db *gorm.DB

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}

	// uses pool to try to connect to Docker
	err = pool.Client.Ping()
	if err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	// pulls an image, creates a container based on it and runs it
	resource, err := pool.Run("postgres", "17.2-alpine", []string{"POSTGRES_USER=postgres", "POSTGRES_PASSWORD=postgres", "DATABASE_NAME=postgres"})
	if err != nil {
		log.Fatalf("Could not start resource: %s", err)
	}
	resource.Expire(600) // Tell docker to hard kill the container in 10 minutes
	sqlInfo := fmt.Sprintf(
		"host=localhost port=%s user=postgres password=postgres dbname=postgres sslmode=disable search_path=eventdesk",
		resource.GetPort("5432/tcp"))

	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	if err := pool.Retry(func() error {
		var err error
		db, err = gorm.Open(postgres.Open(sqlInfo), &gorm.Config{
			NamingStrategy: schema.NamingStrategy{
				TablePrefix:   "eventdesk.",
				SingularTable: false,
			},
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return err
		}
		return config.Migrate(db,
			&repository.User{},
			&repository.School{},
			&repository.Event{},
			&repository.EventCategory{},
			&repository.Registration{},
		)
	}); err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	defer func() {
		if err := pool.Purge(resource); err != nil {
			log.Fatalf("Could not purge resource: %s", err)
		}
	}()
	m.Run()
}

type sentMail struct {
	to         string
	subject    string
	attachment *client.Attachment
}

type fakeMail struct {
	err  error
	sent []sentMail
}

func (f *fakeMail) Send(ctx context.Context, to string, subject string, html string, attachment *client.Attachment) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, attachment: attachment})
	return nil
}

type fakePdf struct {
	err error
}

func (f *fakePdf) Render(ctx context.Context, data *client.CertificateData) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake certificate"), nil
}

type fakeGateway struct {
	create     *client.CreatePaymentResponse
	createErr  error
	execute    *client.ExecutePaymentResponse
	executeErr error
}

func (f *fakeGateway) CreatePayment(ctx context.Context, amount float64, invoiceRef string, payerRef string) (*client.CreatePaymentResponse, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.create, nil
}

func (f *fakeGateway) ExecutePayment(ctx context.Context, paymentId string) (*client.ExecutePaymentResponse, error) {
	if f.executeErr != nil {
		return nil, f.executeErr
	}
	return f.execute, nil
}

func createTestEvent(t *testing.T, event *repository.Event) *repository.Event {
	t.Helper()
	err := db.Create(event).Error
	assert.Nil(t, err)
	return event
}

func countRegistrations(t *testing.T, eventId int) int64 {
	t.Helper()
	var count int64
	err := db.Unscoped().Model(&repository.Registration{}).Where("event_id = ?", eventId).Count(&count).Error
	assert.Nil(t, err)
	return count
}
