package companydata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/alphaforge/internal/contracts"
)

// SQLite stores timestamps and dates as text
const (
	sqliteTimeLayout = time.RFC3339
	sqliteDateLayout = "2006-01-02"
)

// SQLiteRepository implements contracts.CompanyRepository on embedded SQLite (local mode)
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLiteRepository
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

var _ contracts.CompanyRepository = (*SQLiteRepository)(nil)

func sqliteNow() string {
	return time.Now().UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	if t, err := time.Parse(sqliteTimeLayout, s.String); err == nil {
		return t
	}
	if t, err := time.Parse(sqliteDateLayout, s.String); err == nil {
		return t
	}
	return time.Time{}
}

// ListCompanyIDs returns every company id
func (r *SQLiteRepository) ListCompanyIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM companies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query company ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan company id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListSymbols returns every known symbol
func (r *SQLiteRepository) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT symbol FROM companies ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	symbols := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// LoadSnapshot reads the current snapshot of one company
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context, companyID int64) (*contracts.CompanySnapshot, error) {
	query := `
		SELECT
			id, symbol, name, exchange,
			market_cap, price, pe_ratio, free_cash_flow, debt_to_equity,
			price_change_52w, avg_daily_volume, net_debt_to_ebitda,
			total_debt, shareholder_equity,
			corporate_actions, ingested_at
		FROM companies
		WHERE id = ?
	`

	s := &contracts.CompanySnapshot{}
	var caJSON string
	var ingestedAt sql.NullString

	err := r.db.QueryRowContext(ctx, query, companyID).Scan(
		&s.ID, &s.Symbol, &s.Name, &s.Exchange,
		&s.MarketCap, &s.Price, &s.PERatio, &s.FreeCashFlow, &s.DebtToEquity,
		&s.PriceChange52W, &s.AvgDailyVolume, &s.NetDebtToEBITDA,
		&s.TotalDebt, &s.ShareholderEquity,
		&caJSON, &ingestedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contracts.ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query company %d: %w", companyID, err)
	}

	if s.CorporateActions, err = decodeCorporateActions([]byte(caJSON)); err != nil {
		return nil, err
	}
	s.IngestedAt = parseSQLiteTime(ingestedAt)

	return s, nil
}

// LoadHistory reads up to 5 fiscal years per statement type
func (r *SQLiteRepository) LoadHistory(ctx context.Context, companyID int64) (*contracts.FinancialHistory, error) {
	query := `
		SELECT statement_type, fiscal_year, statement_data
		FROM (
			SELECT statement_type, fiscal_year, statement_data,
				ROW_NUMBER() OVER (PARTITION BY statement_type ORDER BY fiscal_year DESC) AS rn
			FROM financial_statements
			WHERE company_id = ?
		)
		WHERE rn <= ?
	`

	rows, err := r.db.QueryContext(ctx, query, companyID, contracts.MaxHistoryYears)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}
	defer rows.Close()

	var statements []statementRow
	for rows.Next() {
		var st, raw string
		var year int
		if err := rows.Scan(&st, &year, &raw); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		data, err := decodeStatementData([]byte(raw))
		if err != nil {
			continue
		}
		statements = append(statements, statementRow{
			statementType: contracts.StatementType(st),
			fiscalYear:    year,
			data:          data,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return buildHistory(statements), nil
}

// SaveResult overwrites the stored screening result of one company
func (r *SQLiteRepository) SaveResult(ctx context.Context, result *contracts.ScreeningResult) error {
	redFlags, details, err := encodeResult(result)
	if err != nil {
		return err
	}

	now := sqliteNow()
	res, err := r.db.ExecContext(ctx, `
		UPDATE companies SET
			red_flags = ?,
			disqualified = ?,
			quality_score = ?,
			screening_details = ?,
			screened_at = ?,
			updated_at = ?
		WHERE id = ?
	`, string(redFlags), result.Disqualified, result.QualityScore, string(details), now, now, result.CompanyID)
	if err != nil {
		return fmt.Errorf("update screening result: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return contracts.ErrCompanyNotFound
	}
	return nil
}

// UpsertSnapshot replaces the snapshot columns of a company (by symbol)
func (r *SQLiteRepository) UpsertSnapshot(ctx context.Context, s *contracts.CompanySnapshot, cik string) (int64, error) {
	caJSON, err := encodeCorporateActions(s.CorporateActions)
	if err != nil {
		return 0, err
	}

	now := sqliteNow()
	query := `
		INSERT INTO companies (
			symbol, name, exchange, cik,
			market_cap, price, pe_ratio, free_cash_flow, debt_to_equity,
			price_change_52w, avg_daily_volume, net_debt_to_ebitda,
			total_debt, shareholder_equity, corporate_actions, ingested_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			name = excluded.name,
			exchange = excluded.exchange,
			cik = excluded.cik,
			market_cap = excluded.market_cap,
			price = excluded.price,
			pe_ratio = excluded.pe_ratio,
			free_cash_flow = excluded.free_cash_flow,
			debt_to_equity = excluded.debt_to_equity,
			price_change_52w = excluded.price_change_52w,
			avg_daily_volume = excluded.avg_daily_volume,
			net_debt_to_ebitda = excluded.net_debt_to_ebitda,
			total_debt = excluded.total_debt,
			shareholder_equity = excluded.shareholder_equity,
			corporate_actions = excluded.corporate_actions,
			ingested_at = excluded.ingested_at,
			updated_at = excluded.updated_at
		RETURNING id
	`

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		strings.ToUpper(s.Symbol), s.Name, s.Exchange, cik,
		s.MarketCap, s.Price, s.PERatio, s.FreeCashFlow, s.DebtToEquity,
		s.PriceChange52W, s.AvgDailyVolume, s.NetDebtToEBITDA,
		s.TotalDebt, s.ShareholderEquity, string(caJSON), now, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert company %s: %w", s.Symbol, err)
	}
	return id, nil
}

// SaveStatements upserts annual statements
func (r *SQLiteRepository) SaveStatements(ctx context.Context, statements []contracts.Statement) error {
	if len(statements) == 0 {
		return nil
	}

	query := `
		INSERT INTO financial_statements (company_id, statement_type, fiscal_year, statement_data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (company_id, statement_type, fiscal_year) DO UPDATE SET
			statement_data = excluded.statement_data
	`

	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, st := range statements {
			data, err := json.Marshal(st.Data)
			if err != nil {
				return fmt.Errorf("marshal statement data: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, st.CompanyID, string(st.Type), st.FiscalYear, string(data)); err != nil {
				return fmt.Errorf("insert %s %d: %w", st.Type, st.FiscalYear, err)
			}
		}
		return nil
	})
}

// SaveFilings upserts SEC filings
func (r *SQLiteRepository) SaveFilings(ctx context.Context, filings []contracts.Filing) error {
	if len(filings) == 0 {
		return nil
	}

	query := `
		INSERT INTO sec_filings (company_id, accession_number, form_type, filing_date, report_date, document_url)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (company_id, accession_number) DO UPDATE SET
			form_type = excluded.form_type,
			filing_date = excluded.filing_date,
			report_date = excluded.report_date,
			document_url = excluded.document_url
	`

	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, f := range filings {
			var reportDate sql.NullString
			if !f.ReportDate.IsZero() {
				reportDate = sql.NullString{String: f.ReportDate.Format(sqliteDateLayout), Valid: true}
			}
			if _, err := tx.ExecContext(ctx, query,
				f.CompanyID, f.AccessionNumber, f.FormType,
				f.FilingDate.Format(sqliteDateLayout), reportDate, f.DocumentURL,
			); err != nil {
				return fmt.Errorf("insert filing %s: %w", f.AccessionNumber, err)
			}
		}
		return nil
	})
}

// SaveNews upserts news items
func (r *SQLiteRepository) SaveNews(ctx context.Context, items []contracts.NewsItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO news (company_id, headline, summary, url, source, published_at, red_flag_keywords)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (company_id, headline) DO UPDATE SET
			summary = excluded.summary,
			url = excluded.url,
			source = excluded.source,
			published_at = excluded.published_at,
			red_flag_keywords = excluded.red_flag_keywords
	`

	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, n := range items {
			keywords, err := encodeStrings(n.RedFlagKeywords)
			if err != nil {
				return fmt.Errorf("marshal keywords: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query,
				n.CompanyID, n.Headline, n.Summary, n.URL, n.Source,
				n.PublishedAt.UTC().Format(sqliteTimeLayout), string(keywords),
			); err != nil {
				return fmt.Errorf("insert news: %w", err)
			}
		}
		return nil
	})
}

// LatestFilingDates returns the latest filing date per form type
func (r *SQLiteRepository) LatestFilingDates(ctx context.Context, companyID int64, forms []string) (map[string]time.Time, error) {
	latest := make(map[string]time.Time)
	if len(forms) == 0 {
		return latest, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(forms)), ",")
	query := `
		SELECT form_type, MAX(filing_date)
		FROM sec_filings
		WHERE company_id = ? AND form_type IN (` + placeholders + `)
		GROUP BY form_type
	`

	args := make([]any, 0, len(forms)+1)
	args = append(args, companyID)
	for _, f := range forms {
		args = append(args, f)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query filing dates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var form string
		var date sql.NullString
		if err := rows.Scan(&form, &date); err != nil {
			return nil, fmt.Errorf("scan filing date: %w", err)
		}
		if t := parseSQLiteTime(date); !t.IsZero() {
			latest[form] = t
		}
	}
	return latest, rows.Err()
}

// RecentRedFlagNews returns the latest news rows carrying red flag keywords
func (r *SQLiteRepository) RecentRedFlagNews(ctx context.Context, companyID int64, limit int) ([]contracts.NewsRedFlag, error) {
	query := `
		SELECT headline, red_flag_keywords, published_at, url
		FROM news
		WHERE company_id = ? AND red_flag_keywords <> '[]'
		ORDER BY published_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("query red flag news: %w", err)
	}
	defer rows.Close()

	items := make([]contracts.NewsRedFlag, 0)
	for rows.Next() {
		var item contracts.NewsRedFlag
		var raw string
		var published sql.NullString
		if err := rows.Scan(&item.Headline, &raw, &published, &item.URL); err != nil {
			return nil, fmt.Errorf("scan news: %w", err)
		}
		if item.Keywords, err = decodeStrings([]byte(raw)); err != nil {
			continue
		}
		item.PublishedAt = parseSQLiteTime(published)
		items = append(items, item)
	}
	return items, rows.Err()
}

// LoadResult reads the stored screening result of one company
func (r *SQLiteRepository) LoadResult(ctx context.Context, companyID int64) (*contracts.StoredResult, error) {
	query := `
		SELECT id, symbol, name, red_flags, disqualified, quality_score, screening_details, screened_at
		FROM companies
		WHERE id = ? AND screened_at IS NOT NULL
	`

	res, err := scanSQLiteResult(r.db.QueryRowContext(ctx, query, companyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contracts.ErrCompanyNotFound
	}
	return res, err
}

// ListResults reads stored screening results, best score first
func (r *SQLiteRepository) ListResults(ctx context.Context, filter contracts.ResultFilter) ([]contracts.StoredResult, error) {
	query := `
		SELECT id, symbol, name, red_flags, disqualified, quality_score, screening_details, screened_at
		FROM companies
		WHERE screened_at IS NOT NULL
	`
	args := []any{}
	if filter.Disqualified != nil {
		query += " AND disqualified = ?"
		args = append(args, *filter.Disqualified)
	}
	if filter.MinScore != nil {
		query += " AND quality_score >= ?"
		args = append(args, *filter.MinScore)
	}
	query += " ORDER BY quality_score DESC, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	results := make([]contracts.StoredResult, 0)
	for rows.Next() {
		res, err := scanSQLiteResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteResult(row sqlScanner) (*contracts.StoredResult, error) {
	var res contracts.StoredResult
	var flags string
	var details, screenedAt sql.NullString
	var score sql.NullInt64

	if err := row.Scan(&res.CompanyID, &res.Symbol, &res.Name, &flags, &res.Disqualified, &score, &details, &screenedAt); err != nil {
		return nil, err
	}

	var err error
	if res.RedFlags, err = decodeStrings([]byte(flags)); err != nil {
		return nil, fmt.Errorf("decode red flags: %w", err)
	}
	res.QualityScore = int(score.Int64)
	if details.Valid && details.String != "" {
		res.Details = json.RawMessage(details.String)
	}
	res.ScreenedAt = parseSQLiteTime(screenedAt)
	return &res, nil
}

// inTx runs fn in a transaction (SQLite: 단일 커넥션이므로 tx 밖의 쿼리 금지)
func (r *SQLiteRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
