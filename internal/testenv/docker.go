// Package testenv starts throwaway database containers for integration tests through
// the docker CLI.
package testenv

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"doctors-portal/pkg/database"
	"doctors-portal/pkg/utils"

	"go.mongodb.org/mongo-driver/mongo"
)

const startTimeout = 60 * time.Second

// DockerAvailable reports whether a docker daemon answers on this host.
func DockerAvailable() bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

type container struct {
	id   string
	port int
}

func (c *container) remove() {
	_ = exec.Command("docker", "rm", "-f", c.id).Run()
}

// run starts image detached with containerPort published on a free host port.
func run(ctx context.Context, image string, containerPort int, env []string, args ...string) (*container, error) {
	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("find free port: %w", err)
	}

	cmdArgs := []string{"run", "-d", "--rm", "-p", fmt.Sprintf("%d:%d", port, containerPort)}
	for _, e := range env {
		cmdArgs = append(cmdArgs, "-e", e)
	}
	cmdArgs = append(cmdArgs, image)
	cmdArgs = append(cmdArgs, args...)

	out, err := exec.CommandContext(ctx, "docker", cmdArgs...).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("docker run %s: %w\noutput: %s", image, err, string(out))
	}
	return &container{id: strings.TrimSpace(string(out)), port: port}, nil
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// retry calls fn until it succeeds or the start timeout passes, returning the last error.
func retry(ctx context.Context, fn func() error) error {
	deadline := time.Now().Add(startTimeout)
	for {
		err := fn()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// StartPostgres runs postgres:16-alpine and returns a connected pool. The returned func
// closes the pool and removes the container.
func StartPostgres(ctx context.Context) (database.PgxIface, func(), error) {
	c, err := run(ctx, "postgres:16-alpine", 5432, []string{
		"POSTGRES_USER=portal",
		"POSTGRES_PASSWORD=portal",
		"POSTGRES_DB=portal_test",
	})
	if err != nil {
		return nil, nil, err
	}

	config := utils.DatabaseConfig{
		Host:     "localhost",
		Port:     strconv.Itoa(c.port),
		Name:     "portal_test",
		User:     "portal",
		Password: "portal",
		SSLMode:  "disable",
		MaxConns: 32,
	}

	var db database.PgxIface
	err = retry(ctx, func() error {
		var err error
		db, err = database.InitDB(config)
		return err
	})
	if err != nil {
		c.remove()
		return nil, nil, fmt.Errorf("wait for postgres: %w", err)
	}

	return db, func() {
		db.Close()
		c.remove()
	}, nil
}

const initReplicaSet = `try { rs.status().ok } catch (e) { rs.initiate({_id: "rs0", members: [{_id: 0, host: "localhost:27017"}]}).ok }`

// StartMongo runs mongo:7 as a single-node replica set, which transactions require,
// and returns a client connected to its primary.
func StartMongo(ctx context.Context) (*mongo.Client, func(), error) {
	c, err := run(ctx, "mongo:7", 27017, nil, "--replSet", "rs0", "--bind_ip_all")
	if err != nil {
		return nil, nil, err
	}

	err = retry(ctx, func() error {
		out, err := exec.CommandContext(ctx, "docker", "exec", c.id, "mongosh", "--quiet", "--eval", initReplicaSet).CombinedOutput()
		if err != nil {
			return fmt.Errorf("rs.initiate: %w: %s", err, string(out))
		}
		if strings.TrimSpace(string(out)) != "1" {
			return fmt.Errorf("rs.initiate: unexpected output %q", string(out))
		}
		return nil
	})
	if err != nil {
		c.remove()
		return nil, nil, fmt.Errorf("init replica set: %w", err)
	}

	config := utils.MongoConfig{
		URI:      fmt.Sprintf("mongodb://localhost:%d/?directConnection=true", c.port),
		Database: "portal_test",
	}

	var client *mongo.Client
	err = retry(ctx, func() error {
		var err error
		client, _, err = database.InitMongo(config)
		return err
	})
	if err != nil {
		c.remove()
		return nil, nil, fmt.Errorf("wait for mongo primary: %w", err)
	}

	return client, func() {
		_ = client.Disconnect(context.Background())
		c.remove()
	}, nil
}
