package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nilantra/furniture-api/internal/model"
)

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

const productColumns = `id, name, slug, description, main_category, sub_category, price, offer_price,
	material, dim_length, dim_width, dim_height, colors, seat, images, stock,
	is_featured, is_best_seller, is_active, vendor_id, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.MainCategory, &p.SubCategory, &p.Price, &p.OfferPrice,
		&p.Material, &p.Dimensions.Length, &p.Dimensions.Width, &p.Dimensions.Height, &p.Colors, &p.Seat, &p.Images, &p.Stock,
		&p.IsFeatured, &p.IsBestSeller, &p.IsActive, &p.VendorID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgProductRepo) Create(ctx context.Context, p *model.Product) error {
	p.ID = uuid.New()
	query := `INSERT INTO products (id, name, slug, description, main_category, sub_category, price, offer_price,
			  material, dim_length, dim_width, dim_height, colors, seat, images, stock,
			  is_featured, is_best_seller, is_active, vendor_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Slug, p.Description, p.MainCategory, p.SubCategory, p.Price, p.OfferPrice,
		p.Material, p.Dimensions.Length, p.Dimensions.Width, p.Dimensions.Height,
		nonNil(p.Colors), nonNilFloats(p.Seat), nonNil(p.Images), p.Stock,
		p.IsFeatured, p.IsBestSeller, p.IsActive, p.VendorID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *pgProductRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
}

func (r *pgProductRepo) SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE slug = $1 AND id <> $2)`, slug, exclude,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

func (r *pgProductRepo) List(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	const normMain = `regexp_replace(lower(main_category), '[-_[:space:]]+', ' ', 'g')`
	const normSub = `regexp_replace(lower(sub_category), '[-_[:space:]]+', ' ', 'g')`
	if f.MainCategory != "" {
		add(normMain+` = $%d`, NormalizeCategory(f.MainCategory))
	}
	if f.SubCategory != "" {
		add(normSub+` = $%d`, NormalizeCategory(f.SubCategory))
	}
	if f.Category != "" {
		args = append(args, NormalizeCategory(f.Category))
		n := len(args)
		where = append(where, fmt.Sprintf(`(%s = $%d OR %s = $%d)`, normMain, n, normSub, n))
	}
	if f.Featured != nil {
		add(`is_featured = $%d`, *f.Featured)
	}
	if f.BestSeller != nil {
		add(`is_best_seller = $%d`, *f.BestSeller)
	}
	if f.HasOffer != nil {
		if *f.HasOffer {
			where = append(where, `(offer_price IS NOT NULL AND offer_price > 0)`)
		} else {
			where = append(where, `(offer_price IS NULL OR offer_price <= 0)`)
		}
	}
	if f.Active != nil {
		add(`is_active = $%d`, *f.Active)
	}
	if f.VendorID != nil {
		add(`vendor_id = $%d`, *f.VendorID)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY created_at DESC`
	return r.query(ctx, query, args...)
}

func (r *pgProductRepo) query(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// Update writes every field except stock, which only moves through
// SetStock and the conditional increments.
func (r *pgProductRepo) Update(ctx context.Context, p *model.Product) error {
	query := `UPDATE products SET name=$2, slug=$3, description=$4, main_category=$5, sub_category=$6,
			  price=$7, offer_price=$8, material=$9, dim_length=$10, dim_width=$11, dim_height=$12,
			  colors=$13, seat=$14, images=$15, is_featured=$16, is_best_seller=$17, is_active=$18,
			  updated_at=NOW()
			  WHERE id=$1 RETURNING stock, updated_at`
	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Slug, p.Description, p.MainCategory, p.SubCategory,
		p.Price, p.OfferPrice, p.Material, p.Dimensions.Length, p.Dimensions.Width, p.Dimensions.Height,
		nonNil(p.Colors), nonNilFloats(p.Seat), nonNil(p.Images), p.IsFeatured, p.IsBestSeller, p.IsActive,
	).Scan(&p.Stock, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	ct, err := r.pool.Exec(ctx, `UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`, id, stock)
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgProductRepo) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND stock >= $2`,
		id, quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, ErrInsufficientStock)
	}
	return nil
}

func (r *pgProductRepo) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`, id, quantity,
	)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	return nil
}

// NOT NULL array columns reject a nil slice.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilFloats(s []float64) []float64 {
	if s == nil {
		return []float64{}
	}
	return s
}
