package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"

	"github.com/fhuszti/cleanmedia-go/internal/logger"
)

type ContainerInfo struct {
	// Addr is the DSN for databases and host:port for everything else.
	Addr    string
	Cleanup func()
}

// runContainer starts opts and waits until ready accepts the mapped host port.
func runContainer(name string, opts *dockertest.RunOptions, internalPort string, ready func(hostPort string) error) (string, func(), error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return "", nil, fmt.Errorf("could not connect to docker: %w", err)
	}

	resource, err := pool.RunWithOptions(opts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return "", nil, fmt.Errorf("could not start %s container: %w", name, err)
	}

	hostPort := resource.GetPort(internalPort)
	if err := pool.Retry(func() error { return ready(hostPort) }); err != nil {
		_ = pool.Purge(resource)
		return "", nil, fmt.Errorf("%s did not become ready: %w", name, err)
	}

	cleanup := func() {
		if err := pool.Purge(resource); err != nil {
			logger.Warnf(context.Background(), "could not purge %s container: %s", name, err)
		}
	}
	return hostPort, cleanup, nil
}

func StartPostgresContainer() (*ContainerInfo, error) {
	const (
		user     = "dendrite"
		password = "itsasecret"
	)
	dsnFor := func(port string) string {
		return fmt.Sprintf("postgres://%s:%s@localhost:%s/dendrite?sslmode=disable", user, password, port)
	}

	port, cleanup, err := runContainer("postgres", &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=dendrite",
		},
	}, "5432/tcp", func(port string) error {
		db, err := sql.Open("pgx", dsnFor(port))
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return db.Ping()
	})
	if err != nil {
		return nil, err
	}
	return &ContainerInfo{Addr: dsnFor(port), Cleanup: cleanup}, nil
}

func StartRedisContainer() (*ContainerInfo, error) {
	port, cleanup, err := runContainer("redis", &dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, "6379/tcp", func(port string) error {
		rdb := redis.NewClient(&redis.Options{Addr: "localhost:" + port})
		defer func() { _ = rdb.Close() }()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		return nil, err
	}
	return &ContainerInfo{Addr: "localhost:" + port, Cleanup: cleanup}, nil
}
