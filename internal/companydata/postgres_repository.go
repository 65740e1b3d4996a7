package companydata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/alphaforge/internal/contracts"
)

// PostgresRepository implements contracts.CompanyRepository on PostgreSQL
// ⭐ SSOT: 회사 데이터 영속화는 이 패키지에서만
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var _ contracts.CompanyRepository = (*PostgresRepository)(nil)

// ListCompanyIDs returns every company id
func (r *PostgresRepository) ListCompanyIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM companies ORDER BY id`)
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
func (r *PostgresRepository) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT symbol FROM companies ORDER BY symbol`)
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
func (r *PostgresRepository) LoadSnapshot(ctx context.Context, companyID int64) (*contracts.CompanySnapshot, error) {
	query := `
		SELECT
			id, symbol, name, exchange,
			market_cap, price, pe_ratio, free_cash_flow, debt_to_equity,
			price_change_52w, avg_daily_volume, net_debt_to_ebitda,
			total_debt, shareholder_equity,
			corporate_actions, ingested_at
		FROM companies
		WHERE id = $1
	`

	s := &contracts.CompanySnapshot{}
	var caJSON []byte
	var ingestedAt *time.Time

	err := r.pool.QueryRow(ctx, query, companyID).Scan(
		&s.ID, &s.Symbol, &s.Name, &s.Exchange,
		&s.MarketCap, &s.Price, &s.PERatio, &s.FreeCashFlow, &s.DebtToEquity,
		&s.PriceChange52W, &s.AvgDailyVolume, &s.NetDebtToEBITDA,
		&s.TotalDebt, &s.ShareholderEquity,
		&caJSON, &ingestedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query company %d: %w", companyID, err)
	}

	if s.CorporateActions, err = decodeCorporateActions(caJSON); err != nil {
		return nil, err
	}
	if ingestedAt != nil {
		s.IngestedAt = *ingestedAt
	}

	return s, nil
}

// LoadHistory reads up to 5 fiscal years per statement type
func (r *PostgresRepository) LoadHistory(ctx context.Context, companyID int64) (*contracts.FinancialHistory, error) {
	query := `
		SELECT statement_type, fiscal_year, statement_data
		FROM (
			SELECT statement_type, fiscal_year, statement_data,
				ROW_NUMBER() OVER (PARTITION BY statement_type ORDER BY fiscal_year DESC) AS rn
			FROM financial_statements
			WHERE company_id = $1
		) ranked
		WHERE rn <= $2
	`

	rows, err := r.pool.Query(ctx, query, companyID, contracts.MaxHistoryYears)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}
	defer rows.Close()

	var statements []statementRow
	for rows.Next() {
		var st string
		var year int
		var raw []byte
		if err := rows.Scan(&st, &year, &raw); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		data, err := decodeStatementData(raw)
		if err != nil {
			// 깨진 행은 건너뜀
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
func (r *PostgresRepository) SaveResult(ctx context.Context, result *contracts.ScreeningResult) error {
	redFlags, details, err := encodeResult(result)
	if err != nil {
		return err
	}

	query := `
		UPDATE companies SET
			red_flags = $2,
			disqualified = $3,
			quality_score = $4,
			screening_details = $5,
			screened_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, result.CompanyID, redFlags, result.Disqualified, result.QualityScore, details)
	if err != nil {
		return fmt.Errorf("update screening result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrCompanyNotFound
	}
	return nil
}

// UpsertSnapshot replaces the snapshot columns of a company (by symbol)
func (r *PostgresRepository) UpsertSnapshot(ctx context.Context, s *contracts.CompanySnapshot, cik string) (int64, error) {
	caJSON, err := encodeCorporateActions(s.CorporateActions)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO companies (
			symbol, name, exchange, cik,
			market_cap, price, pe_ratio, free_cash_flow, debt_to_equity,
			price_change_52w, avg_daily_volume, net_debt_to_ebitda,
			total_debt, shareholder_equity, corporate_actions, ingested_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			exchange = EXCLUDED.exchange,
			cik = EXCLUDED.cik,
			market_cap = EXCLUDED.market_cap,
			price = EXCLUDED.price,
			pe_ratio = EXCLUDED.pe_ratio,
			free_cash_flow = EXCLUDED.free_cash_flow,
			debt_to_equity = EXCLUDED.debt_to_equity,
			price_change_52w = EXCLUDED.price_change_52w,
			avg_daily_volume = EXCLUDED.avg_daily_volume,
			net_debt_to_ebitda = EXCLUDED.net_debt_to_ebitda,
			total_debt = EXCLUDED.total_debt,
			shareholder_equity = EXCLUDED.shareholder_equity,
			corporate_actions = EXCLUDED.corporate_actions,
			ingested_at = NOW(),
			updated_at = NOW()
		RETURNING id
	`

	var id int64
	err = r.pool.QueryRow(ctx, query,
		strings.ToUpper(s.Symbol), s.Name, s.Exchange, cik,
		s.MarketCap, s.Price, s.PERatio, s.FreeCashFlow, s.DebtToEquity,
		s.PriceChange52W, s.AvgDailyVolume, s.NetDebtToEBITDA,
		s.TotalDebt, s.ShareholderEquity, caJSON,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert company %s: %w", s.Symbol, err)
	}
	return id, nil
}

// SaveStatements upserts annual statements
func (r *PostgresRepository) SaveStatements(ctx context.Context, statements []contracts.Statement) error {
	if len(statements) == 0 {
		return nil
	}

	query := `
		INSERT INTO financial_statements (company_id, statement_type, fiscal_year, statement_data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (company_id, statement_type, fiscal_year) DO UPDATE SET
			statement_data = EXCLUDED.statement_data
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, st := range statements {
		data, err := json.Marshal(st.Data)
		if err != nil {
			return fmt.Errorf("marshal statement data: %w", err)
		}
		if _, err := tx.Exec(ctx, query, st.CompanyID, string(st.Type), st.FiscalYear, data); err != nil {
			return fmt.Errorf("insert %s %d: %w", st.Type, st.FiscalYear, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SaveFilings upserts SEC filings
func (r *PostgresRepository) SaveFilings(ctx context.Context, filings []contracts.Filing) error {
	if len(filings) == 0 {
		return nil
	}

	query := `
		INSERT INTO sec_filings (company_id, accession_number, form_type, filing_date, report_date, document_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id, accession_number) DO UPDATE SET
			form_type = EXCLUDED.form_type,
			filing_date = EXCLUDED.filing_date,
			report_date = EXCLUDED.report_date,
			document_url = EXCLUDED.document_url
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, f := range filings {
		var reportDate *time.Time
		if !f.ReportDate.IsZero() {
			reportDate = &f.ReportDate
		}
		if _, err := tx.Exec(ctx, query, f.CompanyID, f.AccessionNumber, f.FormType, f.FilingDate, reportDate, f.DocumentURL); err != nil {
			return fmt.Errorf("insert filing %s: %w", f.AccessionNumber, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SaveNews upserts news items
func (r *PostgresRepository) SaveNews(ctx context.Context, items []contracts.NewsItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO news (company_id, headline, summary, url, source, published_at, red_flag_keywords)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (company_id, headline) DO UPDATE SET
			summary = EXCLUDED.summary,
			url = EXCLUDED.url,
			source = EXCLUDED.source,
			published_at = EXCLUDED.published_at,
			red_flag_keywords = EXCLUDED.red_flag_keywords
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, n := range items {
		keywords, err := encodeStrings(n.RedFlagKeywords)
		if err != nil {
			return fmt.Errorf("marshal keywords: %w", err)
		}
		if _, err := tx.Exec(ctx, query, n.CompanyID, n.Headline, n.Summary, n.URL, n.Source, n.PublishedAt, keywords); err != nil {
			return fmt.Errorf("insert news: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LatestFilingDates returns the latest filing date per form type
func (r *PostgresRepository) LatestFilingDates(ctx context.Context, companyID int64, forms []string) (map[string]time.Time, error) {
	query := `
		SELECT form_type, MAX(filing_date)
		FROM sec_filings
		WHERE company_id = $1 AND form_type = ANY($2)
		GROUP BY form_type
	`

	rows, err := r.pool.Query(ctx, query, companyID, forms)
	if err != nil {
		return nil, fmt.Errorf("query filing dates: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]time.Time)
	for rows.Next() {
		var form string
		var date time.Time
		if err := rows.Scan(&form, &date); err != nil {
			return nil, fmt.Errorf("scan filing date: %w", err)
		}
		latest[form] = date
	}
	return latest, rows.Err()
}

// RecentRedFlagNews returns the latest news rows carrying red flag keywords
func (r *PostgresRepository) RecentRedFlagNews(ctx context.Context, companyID int64, limit int) ([]contracts.NewsRedFlag, error) {
	query := `
		SELECT headline, red_flag_keywords, published_at, url
		FROM news
		WHERE company_id = $1 AND red_flag_keywords <> '[]'::jsonb
		ORDER BY published_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("query red flag news: %w", err)
	}
	defer rows.Close()

	items := make([]contracts.NewsRedFlag, 0)
	for rows.Next() {
		var item contracts.NewsRedFlag
		var raw []byte
		if err := rows.Scan(&item.Headline, &raw, &item.PublishedAt, &item.URL); err != nil {
			return nil, fmt.Errorf("scan news: %w", err)
		}
		if item.Keywords, err = decodeStrings(raw); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// LoadResult reads the stored screening result of one company
func (r *PostgresRepository) LoadResult(ctx context.Context, companyID int64) (*contracts.StoredResult, error) {
	query := `
		SELECT id, symbol, name, red_flags, disqualified, quality_score, screening_details, screened_at
		FROM companies
		WHERE id = $1 AND screened_at IS NOT NULL
	`

	res, err := scanPgResult(r.pool.QueryRow(ctx, query, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrCompanyNotFound
	}
	return res, err
}

// ListResults reads stored screening results, best score first
func (r *PostgresRepository) ListResults(ctx context.Context, filter contracts.ResultFilter) ([]contracts.StoredResult, error) {
	query := `
		SELECT id, symbol, name, red_flags, disqualified, quality_score, screening_details, screened_at
		FROM companies
		WHERE screened_at IS NOT NULL
	`
	args := []any{}
	if filter.Disqualified != nil {
		args = append(args, *filter.Disqualified)
		query += fmt.Sprintf(" AND disqualified = $%d", len(args))
	}
	if filter.MinScore != nil {
		args = append(args, *filter.MinScore)
		query += fmt.Sprintf(" AND quality_score >= $%d", len(args))
	}
	query += " ORDER BY quality_score DESC, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	results := make([]contracts.StoredResult, 0)
	for rows.Next() {
		res, err := scanPgResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

func scanPgResult(row pgx.Row) (*contracts.StoredResult, error) {
	var res contracts.StoredResult
	var flags, details []byte
	var score *int

	if err := row.Scan(&res.CompanyID, &res.Symbol, &res.Name, &flags, &res.Disqualified, &score, &details, &res.ScreenedAt); err != nil {
		return nil, err
	}

	var err error
	if res.RedFlags, err = decodeStrings(flags); err != nil {
		return nil, fmt.Errorf("decode red flags: %w", err)
	}
	if score != nil {
		res.QualityScore = *score
	}
	if len(details) > 0 {
		res.Details = json.RawMessage(details)
	}
	return &res, nil
}
