package respd

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pior/respd/resp"
)

// Item is the result of a Get.
type Item struct {
	Key   string
	Value []byte
	Found bool // whether the key was present
}

// Config holds configuration for the client connection pools.
type Config struct {
	// MaxSize is the maximum number of connections per server pool.
	// Required: must be > 0.
	MaxSize int32

	// MaxConnLifetime is the maximum duration a connection can be reused.
	// Zero means no limit.
	MaxConnLifetime time.Duration

	// MaxConnIdleTime is the maximum duration a connection can be idle
	// before being closed. Zero means no limit.
	MaxConnIdleTime time.Duration

	// HealthCheckInterval is how often idle connections are checked.
	// Zero disables health checks.
	HealthCheckInterval time.Duration

	// Dialer is the net.Dialer used to create new connections.
	// If nil, the default net.Dialer is used.
	Dialer *net.Dialer

	// Pool is the connection pool factory.
	// If nil, the channel-based pool is used.
	Pool PoolFactory

	// SelectServer picks which server to use for a key.
	// If nil, DefaultSelectServer is used.
	SelectServer SelectServerFunc

	// NewCircuitBreaker creates a circuit breaker for a server. Called
	// once per server address when its pool is created. If nil, no
	// circuit breaker is used.
	NewCircuitBreaker func(serverAddr string) CircuitBreaker

	// for testing purposes only
	constructor func(ctx context.Context) (*Connection, error)
}

// serverPool pairs a pool with its server address and optional breaker.
type serverPool struct {
	addr           string
	pool           Pool
	circuitBreaker CircuitBreaker // nil if not configured
}

// poolConfig holds the pool configuration extracted from Config.
type poolConfig struct {
	maxSize             int32
	maxConnLifetime     time.Duration
	maxConnIdleTime     time.Duration
	healthCheckInterval time.Duration
	dialer              *net.Dialer
	poolFactory         PoolFactory
	newCircuitBreaker   func(serverAddr string) CircuitBreaker
	constructor         func(ctx context.Context) (*Connection, error)
}

// Client talks to one or more servers, sharding keys across them and
// pooling connections per server.
type Client struct {
	servers      Servers
	selectServer SelectServerFunc

	mu    sync.RWMutex
	pools map[string]*serverPool

	poolConfig poolConfig

	stopHealthCheck chan struct{}

	stats *clientStatsCollector
}

// NewClient creates a client for the given servers.
// For a single server, use: NewClient(NewStaticServers("host:port"), config)
func NewClient(servers Servers, config Config) (*Client, error) {
	selectServer := config.SelectServer
	if selectServer == nil {
		selectServer = DefaultSelectServer
	}

	if len(servers.List()) == 0 {
		return nil, ErrNoServers
	}

	dialer := config.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	poolFactory := config.Pool
	if poolFactory == nil {
		poolFactory = NewChannelPool
	}

	client := &Client{
		servers:      servers,
		selectServer: selectServer,
		pools:        make(map[string]*serverPool),
		poolConfig: poolConfig{
			maxSize:             config.MaxSize,
			maxConnLifetime:     config.MaxConnLifetime,
			maxConnIdleTime:     config.MaxConnIdleTime,
			healthCheckInterval: config.HealthCheckInterval,
			dialer:              dialer,
			poolFactory:         poolFactory,
			newCircuitBreaker:   config.NewCircuitBreaker,
			constructor:         config.constructor,
		},
		stopHealthCheck: make(chan struct{}),
		stats:           newClientStatsCollector(),
	}

	if config.HealthCheckInterval > 0 {
		go client.healthCheckLoop()
	}

	return client, nil
}

// Close closes the client and destroys all pooled connections.
func (c *Client) Close() {
	if c.poolConfig.healthCheckInterval > 0 {
		close(c.stopHealthCheck)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sp := range c.pools {
		sp.pool.Close()
	}
}

// getPoolForKey returns the pool for the server that handles this key,
// creating it lazily.
func (c *Client) getPoolForKey(key []byte) (*serverPool, error) {
	addr, err := c.selectServer(key, c.servers.List())
	if err != nil {
		return nil, err
	}
	return c.getOrCreatePool(addr)
}

func (c *Client) getOrCreatePool(addr string) (*serverPool, error) {
	c.mu.RLock()
	sp, exists := c.pools[addr]
	c.mu.RUnlock()
	if exists {
		return sp, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if sp, exists := c.pools[addr]; exists {
		return sp, nil
	}

	pool, cb, err := c.createPool(addr)
	if err != nil {
		return nil, err
	}

	sp = &serverPool{
		addr:           addr,
		pool:           pool,
		circuitBreaker: cb,
	}
	c.pools[addr] = sp
	return sp, nil
}

func (c *Client) createPool(addr string) (Pool, CircuitBreaker, error) {
	constructor := c.poolConfig.constructor
	if constructor == nil {
		constructor = func(ctx context.Context) (*Connection, error) {
			netConn, err := c.poolConfig.dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return nil, err
			}
			return NewConnection(netConn), nil
		}
	}

	pool, err := c.poolConfig.poolFactory(constructor, c.poolConfig.maxSize)
	if err != nil {
		return nil, nil, err
	}

	var cb CircuitBreaker
	if c.poolConfig.newCircuitBreaker != nil {
		cb = c.poolConfig.newCircuitBreaker(addr)
	}

	return pool, cb, nil
}

// healthCheckLoop periodically checks idle connections for health and
// lifecycle limits.
func (c *Client) healthCheckLoop() {
	ticker := time.NewTicker(c.poolConfig.healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopHealthCheck:
			return
		case <-ticker.C:
			c.checkAllPools()
		}
	}
}

func (c *Client) checkAllPools() {
	c.mu.RLock()
	pools := make([]*serverPool, 0, len(c.pools))
	for _, sp := range c.pools {
		pools = append(pools, sp)
	}
	c.mu.RUnlock()

	for _, sp := range pools {
		c.checkPoolConnections(sp.pool)
	}
}

// checkPoolConnections destroys idle connections that are stale or
// unhealthy and returns the rest to the pool.
func (c *Client) checkPoolConnections(pool Pool) {
	now := time.Now()

	for _, res := range pool.AcquireAllIdle() {
		if c.poolConfig.maxConnLifetime > 0 && now.Sub(res.CreationTime()) > c.poolConfig.maxConnLifetime {
			res.Destroy()
			continue
		}

		if c.poolConfig.maxConnIdleTime > 0 && res.IdleDuration() > c.poolConfig.maxConnIdleTime {
			res.Destroy()
			continue
		}

		if err := c.healthCheck(res.Value()); err != nil {
			res.Destroy()
			continue
		}

		res.ReleaseUnused()
	}
}

// healthCheck probes a connection with a GET for a key nobody writes.
// The expected miss still proves the round trip works.
func (c *Client) healthCheck(conn *Connection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := conn.Do(ctx, resp.KeywordGet, []byte("__respd_health__"))
	return err
}

// execRequest runs one request/reply cycle against the server pool,
// wrapping it with the circuit breaker when one is configured.
func (c *Client) execRequest(ctx context.Context, sp *serverPool, args ...[]byte) (resp.Value, error) {
	if sp.circuitBreaker != nil {
		value, err := sp.circuitBreaker.Execute(func() (resp.Value, error) {
			return c.execRequestDirect(ctx, sp.pool, args...)
		})
		if err != nil {
			c.stats.recordError()
			return resp.Value{}, err
		}
		return value, nil
	}

	return c.execRequestDirect(ctx, sp.pool, args...)
}

func (c *Client) execRequestDirect(ctx context.Context, pool Pool, args ...[]byte) (resp.Value, error) {
	resource, err := pool.Acquire(ctx)
	if err != nil {
		c.stats.recordError()
		return resp.Value{}, err
	}

	value, err := resource.Value().Do(ctx, args...)
	if err != nil {
		c.stats.recordError()
		// The connection marks itself closed on I/O errors; its stream
		// position is unknown, so it cannot be reused.
		resource.Destroy()
		return resp.Value{}, err
	}

	resource.Release()
	return value, nil
}

// Get retrieves a single key.
func (c *Client) Get(ctx context.Context, key string) (Item, error) {
	sp, err := c.getPoolForKey([]byte(key))
	if err != nil {
		c.stats.recordError()
		return Item{}, err
	}

	value, err := c.execRequest(ctx, sp, resp.KeywordGet, []byte(key))
	if err != nil {
		return Item{}, err
	}

	switch value.Kind() {
	case resp.KindNil:
		c.stats.recordGet(false)
		return Item{Key: key, Found: false}, nil
	case resp.KindData:
		c.stats.recordGet(true)
		return Item{Key: key, Value: value.Data(), Found: true}, nil
	case resp.KindStatus:
		c.stats.recordError()
		return Item{}, fmt.Errorf("%w: %s", ErrServerReply, value.StatusText())
	}

	c.stats.recordError()
	return Item{}, fmt.Errorf("respd: unexpected get reply: %s", value)
}

// Set stores a key.
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	sp, err := c.getPoolForKey([]byte(key))
	if err != nil {
		c.stats.recordError()
		return err
	}

	reply, err := c.execRequest(ctx, sp, resp.KeywordSet, []byte(key), value)
	if err != nil {
		return err
	}

	switch reply.Kind() {
	case resp.KindOkay:
		c.stats.recordSet()
		return nil
	case resp.KindStatus:
		c.stats.recordError()
		return fmt.Errorf("%w: %s", ErrServerReply, reply.StatusText())
	}

	c.stats.recordError()
	return fmt.Errorf("respd: unexpected set reply: %s", reply)
}

// Del removes one or more keys and returns how many existed. All keys
// are routed by the first one, so multi-key deletes only make sense for
// keys on the same server.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	sp, err := c.getPoolForKey([]byte(keys[0]))
	if err != nil {
		c.stats.recordError()
		return 0, err
	}

	args := make([][]byte, 0, len(keys)+1)
	args = append(args, resp.KeywordDel)
	for _, key := range keys {
		args = append(args, []byte(key))
	}

	reply, err := c.execRequest(ctx, sp, args...)
	if err != nil {
		return 0, err
	}

	switch reply.Kind() {
	case resp.KindInt:
		c.stats.recordDel()
		return reply.Num(), nil
	case resp.KindStatus:
		c.stats.recordError()
		return 0, fmt.Errorf("%w: %s", ErrServerReply, reply.StatusText())
	}

	c.stats.recordError()
	return 0, fmt.Errorf("respd: unexpected del reply: %s", reply)
}

// Stats returns a snapshot of client statistics.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// ServerPoolStats contains stats for a single server pool.
type ServerPoolStats struct {
	Addr      string
	PoolStats PoolStats
}

// AllPoolStats returns stats for every server pool created so far.
func (c *Client) AllPoolStats() []ServerPoolStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make([]ServerPoolStats, 0, len(c.pools))
	for _, sp := range c.pools {
		stats = append(stats, ServerPoolStats{
			Addr:      sp.addr,
			PoolStats: sp.pool.Stats(),
		})
	}
	return stats
}
