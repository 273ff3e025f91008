package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"saas-platform/internal/model"
	"saas-platform/prometheus"
)

// Store persists audit entries. The production store writes to the
// audit_logs table; tests substitute an in-memory one.
type Store interface {
	Append(ctx context.Context, entry *model.AuditLog) error
}

// GormStore appends audit entries through a gorm connection
type GormStore struct {
	DB *gorm.DB
}

func (s *GormStore) Append(ctx context.Context, entry *model.AuditLog) error {
	return s.DB.WithContext(ctx).Create(entry).Error
}

// Entry describes a security-relevant action to record
type Entry struct {
	TenantID   *string
	UserID     *string
	Action     string
	EntityType string
	EntityID   string
	IPAddress  string
}

// Recorder appends immutable audit entries asynchronously. Writes are
// best-effort: a full buffer or a failing store is logged and the entry
// dropped; the primary operation is never blocked, failed, or rolled
// back because of audit.
type Recorder struct {
	store   Store
	log     *zap.Logger
	entries chan Entry
	done    chan struct{}
	once    sync.Once
}

// writeTimeout bounds a single audit insert so a stuck database cannot
// back up the writer goroutine indefinitely.
const writeTimeout = 5 * time.Second

// NewRecorder starts a recorder with the given buffer size
func NewRecorder(store Store, log *zap.Logger, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	r := &Recorder{
		store:   store,
		log:     log,
		entries: make(chan Entry, bufferSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer close(r.done)
	for entry := range r.entries {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		row := &model.AuditLog{
			TenantID:   entry.TenantID,
			UserID:     entry.UserID,
			Action:     entry.Action,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			IPAddress:  entry.IPAddress,
		}
		if err := r.store.Append(ctx, row); err != nil {
			prometheus.AuditDroppedCounter.Inc()
			r.log.Warn("audit write failed",
				zap.String("action", entry.Action),
				zap.String("entity_type", entry.EntityType),
				zap.Error(err))
		}
		cancel()
	}
}

// Record enqueues an entry without blocking. Entries are dropped when
// the buffer is full.
func (r *Recorder) Record(entry Entry) {
	select {
	case r.entries <- entry:
	default:
		prometheus.AuditDroppedCounter.Inc()
		r.log.Warn("audit buffer full, entry dropped",
			zap.String("action", entry.Action),
			zap.String("entity_type", entry.EntityType))
	}
}

// Close drains outstanding entries and stops the writer
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.entries)
	})
	<-r.done
}

var defaultRecorder *Recorder

// Init installs the package-level recorder used by handlers
func Init(store Store, log *zap.Logger, bufferSize int) {
	defaultRecorder = NewRecorder(store, log, bufferSize)
}

// Record appends an entry through the package-level recorder. A no-op
// before Init, so unit tests of handlers need no audit setup.
func Record(entry Entry) {
	if defaultRecorder != nil {
		defaultRecorder.Record(entry)
	}
}

// Close stops the package-level recorder
func Close() {
	if defaultRecorder != nil {
		defaultRecorder.Close()
	}
}
