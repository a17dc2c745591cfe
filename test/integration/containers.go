package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type Env struct {
	Mailpit  testcontainers.Container
	SMTPHost string
	SMTPPort int
	APIBase  string
	Cancel   context.CancelFunc
}

// Setup starts a Mailpit container to back the SMTP sender with a real
// server; its HTTP API is used to assert on delivered mail.
func Setup(ctx context.Context) (*Env, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	req := testcontainers.ContainerRequest{
		Image:        "axllent/mailpit:v1.21",
		ExposedPorts: []string{"1025/tcp", "8025/tcp"},
		WaitingFor:   wait.ForListeningPort("1025/tcp"),
	}
	mailpit, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	host, err := mailpit.Host(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	smtpPort, err := mailpit.MappedPort(ctx, "1025/tcp")
	if err != nil {
		cancel()
		return nil, err
	}
	apiPort, err := mailpit.MappedPort(ctx, "8025/tcp")
	if err != nil {
		cancel()
		return nil, err
	}

	return &Env{
		Mailpit:  mailpit,
		SMTPHost: host,
		SMTPPort: smtpPort.Int(),
		APIBase:  fmt.Sprintf("http://%s:%d", host, apiPort.Int()),
		Cancel:   cancel,
	}, nil
}

func (e *Env) Teardown(ctx context.Context) {
	e.Cancel()
	_ = e.Mailpit.Terminate(ctx)
}
