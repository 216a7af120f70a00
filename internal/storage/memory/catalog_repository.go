package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/vladislavdragonenkov/qms/internal/domain"
	"github.com/vladislavdragonenkov/qms/internal/fuzzy"
)

// ClientDirectory: справочник клиентов для разработки и тестов.
type ClientDirectory struct {
	mu      sync.RWMutex
	clients map[int64]domain.Client
}

// NewClientDirectory возвращает in-memory справочник, заполненный переданными клиентами.
func NewClientDirectory(clients ...domain.Client) *ClientDirectory {
	dir := &ClientDirectory{clients: make(map[int64]domain.Client, len(clients))}
	for _, c := range clients {
		dir.clients[c.ID] = c
	}
	return dir
}

// Put добавляет или заменяет клиента.
func (d *ClientDirectory) Put(client domain.Client) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clients[client.ID] = client
}

func (d *ClientDirectory) GetByID(_ context.Context, id int64) (domain.Client, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	client, ok := d.clients[id]
	if !ok {
		return domain.Client{}, domain.ErrClientNotFound
	}
	return client, nil
}

// productCatalogInMemory: каталог товаров в памяти.
type productCatalogInMemory struct {
	mu       sync.RWMutex
	nextID   int64
	products map[int64]domain.Product
}

// NewProductCatalog возвращает in-memory каталог.
func NewProductCatalog() domain.ProductCatalog {
	return &productCatalogInMemory{products: make(map[int64]domain.Product)}
}

func (c *productCatalogInMemory) Create(_ context.Context, product domain.Product) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if product.ID == 0 {
		c.nextID++
		product.ID = c.nextID
	} else if product.ID > c.nextID {
		c.nextID = product.ID
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	c.products[product.ID] = product
	return product, nil
}

func (c *productCatalogInMemory) GetByID(_ context.Context, id int64) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	product, ok := c.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

func (c *productCatalogInMemory) SearchPrefix(_ context.Context, text string, limit int) ([]domain.Product, error) {
	needle := fuzzy.Normalize(text)

	c.mu.RLock()
	result := make([]domain.Product, 0)
	for _, p := range c.products {
		if strings.Contains(fuzzy.Normalize(p.Name), needle) {
			result = append(result, p)
		}
	}
	c.mu.RUnlock()

	// Короткие (более точные) совпадения первыми.
	sort.Slice(result, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(result[i].Name), utf8.RuneCountInString(result[j].Name)
		if li != lj {
			return li < lj
		}
		return result[i].ID < result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (c *productCatalogInMemory) All(_ context.Context) ([]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (c *productCatalogInMemory) ListByCategory(_ context.Context, category string) ([]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]domain.Product, 0)
	for _, p := range c.products {
		if p.Category == category {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (c *productCatalogInMemory) UpdatePrice(_ context.Context, id int64, price int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	product, ok := c.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	product.UnitPrice = price
	product.UpdatedAt = time.Now().UTC()
	c.products[id] = product
	return nil
}

func (c *productCatalogInMemory) Update(_ context.Context, id int64, upd domain.ProductUpdate) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	product, ok := c.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	product = upd.Apply(product)
	product.UpdatedAt = time.Now().UTC()
	c.products[id] = product
	return product, nil
}

// Delete не проверяет ссылки из смет: в памяти внешних ключей нет.
func (c *productCatalogInMemory) Delete(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(c.products, id)
	return nil
}

var (
	_ domain.ClientDirectory = (*ClientDirectory)(nil)
	_ domain.ProductCatalog  = (*productCatalogInMemory)(nil)
)
