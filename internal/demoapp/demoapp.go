// Package demoapp wires a small layered application -- logger, config,
// database, cache, repository, service -- through a Registry, the same
// shape the engine's own package doc example uses. It backs the
// cmd/reflectdi inspection CLI and the package-level Example tests.
package demoapp

import (
	"fmt"
	"time"

	"github.com/pegasusheavy/reflectdi/di"
)

// Logger defines the logging contract every layer depends on.
type Logger interface {
	Log(message string)
	LogError(message string)
}

// Config holds application configuration.
type Config interface {
	DatabaseURL() string
	CacheEnabled() bool
}

// Database represents a database connection.
type Database interface {
	Query(sql string) ([]map[string]any, error)
}

// Cache represents a caching layer.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

// User is the domain entity moved between Database, Cache, and Repository.
type User struct {
	ID    int
	Name  string
	Email string
}

// UserRepository handles user data access.
type UserRepository interface {
	FindByID(id int) (*User, error)
	FindAll() ([]*User, error)
}

// UserService handles user business logic.
type UserService interface {
	GetUser(id int) (*User, error)
	ListUsers() ([]*User, error)
}

// ConsoleLogger logs to stdout.
type ConsoleLogger struct {
	prefix string
}

func NewConsoleLogger() Logger {
	return &ConsoleLogger{prefix: "[demoapp]"}
}

func (l *ConsoleLogger) Log(message string) {
	fmt.Printf("%s INFO: %s\n", l.prefix, message)
}

func (l *ConsoleLogger) LogError(message string) {
	fmt.Printf("%s ERROR: %s\n", l.prefix, message)
}

// AppConfig is a static Config implementation.
type AppConfig struct {
	dbURL        string
	cacheEnabled bool
}

func NewAppConfig() Config {
	return &AppConfig{dbURL: "postgres://localhost:5432/demoapp", cacheEnabled: true}
}

func (c *AppConfig) DatabaseURL() string { return c.dbURL }
func (c *AppConfig) CacheEnabled() bool  { return c.cacheEnabled }

// InMemoryDatabase simulates a query backend without an external driver.
type InMemoryDatabase struct {
	logger Logger
	config Config
}

func NewInMemoryDatabase(logger Logger, config Config) (Database, error) {
	return &InMemoryDatabase{logger: logger, config: config}, nil
}

func (db *InMemoryDatabase) Query(sql string) ([]map[string]any, error) {
	return []map[string]any{
		{"id": 1, "name": "Ada Lovelace", "email": "ada@example.com"},
		{"id": 2, "name": "Alan Turing", "email": "alan@example.com"},
	}, nil
}

// InMemoryCache is a simple map-backed cache.
type InMemoryCache struct {
	logger Logger
	data   map[string]any
}

func NewInMemoryCache(logger Logger) Cache {
	return &InMemoryCache{logger: logger, data: make(map[string]any)}
}

func (c *InMemoryCache) Get(key string) (any, bool) {
	v, ok := c.data[key]
	return v, ok
}

func (c *InMemoryCache) Set(key string, value any, ttl time.Duration) {
	c.data[key] = value
}

// DefaultUserRepository implements UserRepository over Database and Cache.
type DefaultUserRepository struct {
	db     Database
	cache  Cache
	logger Logger
}

func NewUserRepository(db Database, cache Cache, logger Logger) UserRepository {
	return &DefaultUserRepository{db: db, cache: cache, logger: logger}
}

func (r *DefaultUserRepository) FindByID(id int) (*User, error) {
	key := fmt.Sprintf("user:%d", id)
	if cached, ok := r.cache.Get(key); ok {
		return cached.(*User), nil
	}
	rows, err := r.db.Query(fmt.Sprintf("SELECT * FROM users WHERE id = %d", id))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("user %d not found", id)
	}
	user := &User{ID: rows[0]["id"].(int), Name: rows[0]["name"].(string), Email: rows[0]["email"].(string)}
	r.cache.Set(key, user, 5*time.Minute)
	return user, nil
}

func (r *DefaultUserRepository) FindAll() ([]*User, error) {
	rows, err := r.db.Query("SELECT * FROM users")
	if err != nil {
		return nil, err
	}
	users := make([]*User, len(rows))
	for i, row := range rows {
		users[i] = &User{ID: row["id"].(int), Name: row["name"].(string), Email: row["email"].(string)}
	}
	return users, nil
}

// DefaultUserService implements UserService over UserRepository.
type DefaultUserService struct {
	repo   UserRepository
	logger Logger
}

func NewUserService(repo UserRepository, logger Logger) UserService {
	return &DefaultUserService{repo: repo, logger: logger}
}

func (s *DefaultUserService) GetUser(id int) (*User, error) {
	return s.repo.FindByID(id)
}

func (s *DefaultUserService) ListUsers() ([]*User, error) {
	return s.repo.FindAll()
}

// RequestContext is a Scoped dependency, one instance per ActivationScope,
// used to demonstrate per-request identity.
type RequestContext struct {
	RequestID string
	StartTime time.Time
}

// Register binds the full Logger/Config/Database/Cache/Repository/Service
// graph to reg at the lifetimes a real deployment would use: Config,
// Logger, Database, and Cache as Singletons: one per process; Repository
// and Service as Transient: cheap to build, no shared state of their own.
func Register(reg *di.Registry) error {
	if err := reg.AddSingleton(di.ConcreteOf[Config](), NewAppConfig); err != nil {
		return err
	}
	if err := reg.AddSingleton(di.ConcreteOf[Logger](), NewConsoleLogger); err != nil {
		return err
	}
	if err := reg.AddSingleton(di.ConcreteOf[Database](), NewInMemoryDatabase); err != nil {
		return err
	}
	if err := reg.AddSingleton(di.ConcreteOf[Cache](), NewInMemoryCache); err != nil {
		return err
	}
	if err := reg.AddTransient(di.ConcreteOf[UserRepository](), NewUserRepository); err != nil {
		return err
	}
	if err := reg.AddTransient(di.ConcreteOf[UserService](), NewUserService); err != nil {
		return err
	}
	return reg.AddScoped(di.ConcreteOf[*RequestContext](), func() *RequestContext {
		return &RequestContext{RequestID: fmt.Sprintf("req-%d", time.Now().UnixNano()), StartTime: time.Now()}
	})
}
