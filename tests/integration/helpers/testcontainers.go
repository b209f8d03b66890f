// Package helpers provides common test utilities for integration tests.
// This includes testcontainers setup for every document store backend and
// an HTTP harness around the itemgraph server.
//
//go:build integration
// +build integration

package helpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Container is a started test container and its mapped address.
type Container struct {
	Container testcontainers.Container
	Host      string
	Port      string
}

// Addr returns the host:port of the mapped service port.
func (c *Container) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Cleanup terminates the container.
func (c *Container) Cleanup(ctx context.Context) error {
	if c.Container != nil {
		if err := c.Container.Terminate(ctx); err != nil {
			return fmt.Errorf("failed to terminate container: %w", err)
		}
	}
	return nil
}

// startContainer runs req and resolves the mapped address of port.
// The container is terminated when the test finishes.
func startContainer(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest, port string) *Container {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start %s container: %v", req.Image, err)
	}

	c := &Container{Container: container}
	t.Cleanup(func() {
		if err := c.Cleanup(context.Background()); err != nil {
			t.Logf("failed to cleanup %s: %v", req.Image, err)
		}
	})

	c.Host, err = container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get %s host: %v", req.Image, err)
	}

	mappedPort, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("failed to get %s port: %v", req.Image, err)
	}
	c.Port = mappedPort.Port()

	return c
}

// SetupRedisContainer starts a Redis container for testing.
// It waits for Redis to be ready before returning.
func SetupRedisContainer(ctx context.Context, t *testing.T) *Container {
	t.Helper()

	return startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        "redis:7.4-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Ready to accept connections"),
			wait.ForListeningPort("6379/tcp"),
		).WithDeadline(30 * time.Second),
	}, "6379")
}

// SetupMongoContainer starts a single MongoDB node.
func SetupMongoContainer(ctx context.Context, t *testing.T) *Container {
	t.Helper()

	return startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        "mongo:7.0",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Waiting for connections"),
			wait.ForListeningPort("27017/tcp"),
		).WithDeadline(60 * time.Second),
	}, "27017")
}

// SetupFirestoreEmulator starts the Cloud Firestore emulator.
func SetupFirestoreEmulator(ctx context.Context, t *testing.T) *Container {
	t.Helper()

	return startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        "gcr.io/google.com/cloudsdktool/google-cloud-cli:emulators",
		ExposedPorts: []string{"8080/tcp"},
		Cmd: []string{
			"gcloud", "emulators", "firestore", "start",
			"--host-port=0.0.0.0:8080",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("Dev App Server is now running"),
			wait.ForListeningPort("8080/tcp"),
		).WithDeadline(2 * time.Minute),
	}, "8080")
}
