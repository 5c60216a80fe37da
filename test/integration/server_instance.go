package integration

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"sync/atomic"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wildbranch/wbl-catalog/pkg/config"
	"github.com/wildbranch/wbl-catalog/pkg/server"
	"github.com/wildbranch/wbl-catalog/pkg/server/endpoints"
)

// portCounter is used to allocate unique ports for each test server
var portCounter int32 = 19000

// ServerConfig holds the settings a scenario may change on its own server
type ServerConfig struct {
	AccessTokenTTL      time.Duration
	RegistrationEnabled bool
}

// DefaultServerConfig returns the default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		AccessTokenTTL:      time.Hour,
		RegistrationEnabled: true,
	}
}

// ServerInstance represents a running catalog server
type ServerInstance struct {
	Server        *server.Server
	ServerURL     string
	Port          int
	Config        ServerConfig
	cancel        context.CancelFunc
	listener      net.Listener
	serverProcess *exec.Cmd // For binary mode
}

// StartServer starts a server against the suite database. This supports
// both inline and binary modes based on how the test suite was started.
func StartServer(tc *TestContext, cfg ServerConfig) (*ServerInstance, error) {
	if tc.InlineMode {
		return startInlineServerInstance(tc.DatabaseURL, cfg)
	}
	return startBinaryServerInstance(tc.BinaryPath, tc.DatabaseURL, cfg)
}

func (cfg ServerConfig) env() []string {
	return []string{
		"WBL_SIGNING_KEY=" + signingKey,
		"WBL_ACCESS_TOKEN_TTL=" + cfg.AccessTokenTTL.String(),
		"WBL_REGISTRATION_ENABLED=" + strconv.FormatBool(cfg.RegistrationEnabled),
		"WBL_PASSWORD_HASH_COST=4",
		"WBL_AUDIT_ENABLED=false",
	}
}

// startInlineServerInstance starts an in-process server
func startInlineServerInstance(dbURL string, cfg ServerConfig) (*ServerInstance, error) {
	port := int(atomic.AddInt32(&portCounter, 1))

	catalogConfig, err := config.LoadFile(os.DevNull)
	if err != nil {
		return nil, err
	}
	catalogConfig.SigningKey = signingKey
	catalogConfig.AccessTokenTTL = cfg.AccessTokenTTL
	catalogConfig.RegistrationEnabled = cfg.RegistrationEnabled
	catalogConfig.PasswordHashCost = 4
	if err := catalogConfig.Validate(); err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dbURL,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s, err := server.NewServer(catalogConfig, db, "127.0.0.1", strconv.Itoa(port))
	if err != nil {
		return nil, err
	}
	endpoints.RegisterAll(s)

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to create listener on port %d: %w", port, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	instance := &ServerInstance{
		Server:    s,
		ServerURL: fmt.Sprintf("http://127.0.0.1:%d", port),
		Port:      port,
		Config:    cfg,
		cancel:    cancel,
		listener:  listener,
	}

	go func() {
		_ = s.StartWithListener(listener)
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = s.Shutdown(shutdownCtx)
	}()

	if err := waitForServer(instance.ServerURL, 10*time.Second); err != nil {
		instance.Stop()
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return instance, nil
}

// startBinaryServerInstance starts a server using the wblctl binary
func startBinaryServerInstance(binaryPath, dbURL string, cfg ServerConfig) (*ServerInstance, error) {
	port := int(atomic.AddInt32(&portCounter, 1))
	portStr := strconv.Itoa(port)

	ctx, cancel := context.WithCancel(context.Background())

	// Use --no-migrate since the suite already ran migrations
	cmd := exec.CommandContext(ctx, binaryPath, "server", "--no-migrate", "-b", "127.0.0.1", "-p", portStr)
	cmd.Env = append(os.Environ(), "DATABASE_URL="+dbURL, "WBL_CONFIG_PATH="+os.TempDir())
	cmd.Env = append(cmd.Env, cfg.env()...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start binary: %w", err)
	}

	instance := &ServerInstance{
		ServerURL:     fmt.Sprintf("http://127.0.0.1:%d", port),
		Port:          port,
		Config:        cfg,
		cancel:        cancel,
		serverProcess: cmd,
	}

	if err := waitForServer(instance.ServerURL, 30*time.Second); err != nil {
		instance.Stop()
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return instance, nil
}

// Stop shuts down the server instance
func (si *ServerInstance) Stop() {
	if si.cancel != nil {
		si.cancel()
	}
	if si.listener != nil {
		_ = si.listener.Close()
	}
	if si.serverProcess != nil && si.serverProcess.Process != nil {
		_ = si.serverProcess.Process.Kill()
		_ = si.serverProcess.Wait()
	}
}
