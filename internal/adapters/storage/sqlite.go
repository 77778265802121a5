package storage

// sqlite.go — histórico de oportunidades append-only sobre SQLite (pure Go).
//
// Estrategia:
//   - `opportunities`: una fila por oportunidad emitida, aceptada o rechazada,
//     con score y outcome. Las filas nunca se actualizan — las correcciones
//     son oportunidades nuevas.
//   - Retención acotada en el tiempo (opportunity_history_days): el prune es
//     lazy, lo dispara el detector al cierre de cada ciclo.
//   - Las patas se serializan como JSON en una columna TEXT: el histórico es
//     para auditoría, no para recomputar profit.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/jgarciad/arbscan/internal/domain"
	"github.com/jgarciad/arbscan/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS opportunities (
    id          TEXT PRIMARY KEY,
    kind        TEXT    NOT NULL,
    legs        TEXT    NOT NULL,
    gross_ratio TEXT    NOT NULL,
    net_ratio   TEXT    NOT NULL,
    net_profit  TEXT    NOT NULL,
    quote       TEXT    NOT NULL,
    size        TEXT    NOT NULL,
    risk_score  REAL    NOT NULL DEFAULT 0,
    accepted    INTEGER NOT NULL DEFAULT 0,
    reason      TEXT    NOT NULL DEFAULT '',
    detected_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_opp_detected ON opportunities(detected_at DESC);
CREATE INDEX IF NOT EXISTS idx_opp_kind     ON opportunities(kind);
`

// SQLiteHistory implementa ports.History usando SQLite (sin CGo).
type SQLiteHistory struct {
	db        *sql.DB
	retention time.Duration
}

// NewSQLiteHistory abre (o crea) la base en path (":memory:" para tests) con
// la ventana de retención dada. Aplica el schema y purga lo que ya expiró.
func NewSQLiteHistory(path string, retention time.Duration) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteHistory: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteHistory: apply schema: %w", err)
	}

	h := &SQLiteHistory{db: db, retention: retention}
	if _, err := h.Prune(context.Background(), time.Now()); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteHistory: initial prune: %w", err)
	}
	return h, nil
}

// Record inserta la oportunidad. Insertar dos veces el mismo ID es un error:
// las filas son inmutables, no hay upsert.
func (h *SQLiteHistory) Record(ctx context.Context, opp domain.Opportunity) error {
	legs, err := json.Marshal(legRows(opp.Legs))
	if err != nil {
		return fmt.Errorf("storage.Record: marshal legs: %w", err)
	}

	accepted := 0
	if opp.Accepted {
		accepted = 1
	}

	if _, err := h.db.ExecContext(ctx, `
		INSERT INTO opportunities
			(id, kind, legs, gross_ratio, net_ratio, net_profit, quote, size,
			 risk_score, accepted, reason, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		opp.ID,
		opp.Kind.String(),
		string(legs),
		opp.GrossRatio.String(),
		opp.NetRatio.String(),
		opp.NetProfit.String(),
		opp.Quote,
		opp.Size.String(),
		opp.RiskScore,
		accepted,
		opp.Reason,
		opp.DetectedAt.UTC(),
	); err != nil {
		return fmt.Errorf("storage.Record: insert %s: %w", opp.ID, err)
	}
	return nil
}

// Prune borra las filas más viejas que la ventana de retención respecto a now.
func (h *SQLiteHistory) Prune(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.UTC().Add(-h.retention)
	res, err := h.db.ExecContext(ctx,
		`DELETE FROM opportunities WHERE detected_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("storage.Prune: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// List devuelve las oportunidades del rango, más recientes primero.
// La lectura opera sobre una vista consistente (una sola query).
func (h *SQLiteHistory) List(ctx context.Context, from, to time.Time) ([]domain.Opportunity, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, kind, legs, gross_ratio, net_ratio, net_profit, quote, size,
		       risk_score, accepted, reason, detected_at
		FROM opportunities
		WHERE detected_at >= ? AND detected_at <= ?
		ORDER BY detected_at DESC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.List: %w", err)
	}
	defer rows.Close()

	var out []domain.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.List: %w", err)
		}
		out = append(out, opp)
	}
	return out, rows.Err()
}

// Stats devuelve los contadores de auditoría del rango.
func (h *SQLiteHistory) Stats(ctx context.Context, from, to time.Time) (ports.HistoryStats, error) {
	var s ports.HistoryStats
	err := h.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(accepted), 0),
		       COALESCE(SUM(CASE WHEN kind = 'triangular' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN kind = 'cross-venue' THEN 1 ELSE 0 END), 0)
		FROM opportunities
		WHERE detected_at >= ? AND detected_at <= ?`,
		from.UTC(), to.UTC(),
	).Scan(&s.Total, &s.Accepted, &s.Triangular, &s.CrossVenue)
	if err != nil {
		return ports.HistoryStats{}, fmt.Errorf("storage.Stats: %w", err)
	}
	s.Rejected = s.Total - s.Accepted
	return s, nil
}

// Close cierra la conexión limpiamente.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

// legRow es la forma serializada de una pata.
type legRow struct {
	Venue  string `json:"venue"`
	Symbol string `json:"symbol"`
	Side   string `json:"side"`
	Price  string `json:"price"`
}

func legRows(legs []domain.Leg) []legRow {
	out := make([]legRow, 0, len(legs))
	for _, l := range legs {
		out = append(out, legRow{
			Venue:  l.Venue,
			Symbol: l.Symbol,
			Side:   l.Side.String(),
			Price:  l.Price.String(),
		})
	}
	return out
}

func scanOpportunity(rows *sql.Rows) (domain.Opportunity, error) {
	var (
		opp                                  domain.Opportunity
		kind, legsJSON                       string
		grossStr, netStr, profitStr, sizeStr string
		accepted                             int
		detectedAt                           time.Time
	)
	if err := rows.Scan(&opp.ID, &kind, &legsJSON, &grossStr, &netStr, &profitStr,
		&opp.Quote, &sizeStr, &opp.RiskScore, &accepted, &opp.Reason, &detectedAt); err != nil {
		return domain.Opportunity{}, err
	}

	if kind == domain.CrossVenue.String() {
		opp.Kind = domain.CrossVenue
	} else {
		opp.Kind = domain.Triangular
	}
	opp.Accepted = accepted == 1
	opp.DetectedAt = detectedAt

	var err error
	if opp.GrossRatio, err = decimal.NewFromString(grossStr); err != nil {
		return domain.Opportunity{}, fmt.Errorf("parse gross_ratio: %w", err)
	}
	if opp.NetRatio, err = decimal.NewFromString(netStr); err != nil {
		return domain.Opportunity{}, fmt.Errorf("parse net_ratio: %w", err)
	}
	if opp.NetProfit, err = decimal.NewFromString(profitStr); err != nil {
		return domain.Opportunity{}, fmt.Errorf("parse net_profit: %w", err)
	}
	if opp.Size, err = decimal.NewFromString(sizeStr); err != nil {
		return domain.Opportunity{}, fmt.Errorf("parse size: %w", err)
	}

	var lr []legRow
	if err := json.Unmarshal([]byte(legsJSON), &lr); err != nil {
		return domain.Opportunity{}, fmt.Errorf("parse legs: %w", err)
	}
	for _, l := range lr {
		price, err := decimal.NewFromString(l.Price)
		if err != nil {
			return domain.Opportunity{}, fmt.Errorf("parse leg price: %w", err)
		}
		side := domain.Buy
		if l.Side == "sell" {
			side = domain.Sell
		}
		opp.Legs = append(opp.Legs, domain.Leg{
			Venue: l.Venue, Symbol: l.Symbol, Side: side, Price: price,
		})
	}

	return opp, nil
}
