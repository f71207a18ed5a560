package dialect

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arkilian/enginecompat/internal/endpoint"
	oerrors "github.com/arkilian/enginecompat/internal/errors"
	"github.com/arkilian/enginecompat/internal/logger"
	"github.com/arkilian/enginecompat/internal/value"
)

// Session pairs an adapter with the endpoint of the same engine. Each
// operation renders one statement (two for a create that also inserts),
// executes it and blocks until the engine answers. Nothing is retried.
type Session struct {
	Adapter  Adapter
	Endpoint endpoint.Endpoint
	log      *zap.Logger
}

// NewSession creates a session. log may be nil.
func NewSession(a Adapter, ep endpoint.Endpoint, log *zap.Logger) *Session {
	return &Session{
		Adapter:  a,
		Endpoint: ep,
		log:      logger.OrNop(log).With(zap.String("engine", string(a.Name()))),
	}
}

// Engine returns the engine name of the adapter.
func (s *Session) Engine() string {
	return string(s.Adapter.Name())
}

// Exec executes raw SQL. Engine failures become EngineQueryErrors.
func (s *Session) Exec(ctx context.Context, sql string) (*endpoint.ResultSet, error) {
	start := time.Now()
	rs, err := s.Endpoint.Execute(ctx, sql)
	if err != nil {
		s.log.Debug("statement failed",
			zap.String("sql", sql),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, oerrors.NewEngineQueryError(s.Engine(), sql, err)
	}
	s.log.Debug("statement executed",
		zap.String("sql", sql),
		zap.Int("rows", rs.Len()),
		zap.Duration("duration", time.Since(start)))
	return rs, nil
}

// Create creates the table. CREATE+INSERT and CTAS WITH NO DATA follow up
// with an insert of the rows.
func (s *Session) Create(ctx context.Context, op CreateTable) error {
	stmt, err := s.Adapter.RenderCreate(op)
	if err != nil {
		return err
	}
	if _, err := s.Exec(ctx, stmt); err != nil {
		return err
	}
	if op.Mode == CreateAsSelect || len(op.Rows) == 0 {
		return nil
	}
	return s.Insert(ctx, Insert{Table: op.Table, Schema: op.Schema, Rows: op.Rows})
}

// Insert appends rows.
func (s *Session) Insert(ctx context.Context, op Insert) error {
	stmt, err := s.Adapter.RenderInsert(op)
	if err != nil {
		return err
	}
	_, err = s.Exec(ctx, stmt)
	return err
}

// Select runs the query and returns normalized rows along with the raw
// result for diagnostics.
func (s *Session) Select(ctx context.Context, op Select) ([]value.Row, *endpoint.ResultSet, error) {
	columns, err := op.ResultColumns()
	if err != nil {
		return nil, nil, err
	}
	stmt, err := s.Adapter.RenderSelect(op)
	if err != nil {
		return nil, nil, err
	}
	rs, err := s.Exec(ctx, stmt)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.Adapter.ParseResultSet(rs, columns)
	if err != nil {
		return nil, rs, err
	}
	return rows, rs, nil
}

// Alter changes one column.
func (s *Session) Alter(ctx context.Context, op Alter) error {
	stmt, err := s.Adapter.RenderAlter(op)
	if err != nil {
		return err
	}
	_, err = s.Exec(ctx, stmt)
	return err
}

// Drop drops the table.
func (s *Session) Drop(ctx context.Context, op DropTable) error {
	_, err := s.Exec(ctx, s.Adapter.RenderDrop(op))
	return err
}

// ShowTables lists matching table names.
func (s *Session) ShowTables(ctx context.Context, op ShowTables) ([]string, error) {
	rs, err := s.Exec(ctx, s.Adapter.RenderShowTables(op))
	if err != nil {
		return nil, err
	}
	return s.Adapter.ParseTableNames(rs)
}
