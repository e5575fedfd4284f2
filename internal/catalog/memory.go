package catalog

import (
	"context"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Memory est un catalogue en mémoire (dev local, CLI, tests)
type Memory struct {
	mu       sync.RWMutex
	order    []string
	products map[string]*memoryProduct
}

type memoryProduct struct {
	title  string
	fields map[string]Metafield
}

type seedFile struct {
	Products []struct {
		ID         string      `yaml:"id"`
		Title      string      `yaml:"title"`
		Metafields []Metafield `yaml:"metafields"`
	} `yaml:"products"`
}

func NewMemory() *Memory {
	return &Memory{products: make(map[string]*memoryProduct)}
}

// LoadMemory construit un catalogue à partir d'un fichier YAML
func LoadMemory(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "lecture seed %s", path)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (*Memory, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, errors.Wrap(err, "seed YAML invalide")
	}
	m := NewMemory()
	for _, p := range seed.Products {
		if p.ID == "" {
			return nil, errors.New("seed: produit sans id")
		}
		m.AddProduct(p.ID, p.Title, p.Metafields...)
	}
	return m, nil
}

// AddProduct crée ou remplace un produit et ses métachamps
func (m *Memory) AddProduct(id, title string, fields ...Metafield) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		m.order = append(m.order, id)
	}
	p := &memoryProduct{title: title, fields: make(map[string]Metafield)}
	for _, f := range fields {
		p.fields[fieldKey(f.Namespace, f.Key)] = f
	}
	m.products[id] = p
}

func (m *Memory) NormalizeID(productID string) string {
	return strings.TrimSpace(productID)
}

func (m *Memory) ProductMetafields(ctx context.Context, productID, namespace string) ([]Metafield, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, errors.Wrapf(ErrProductNotFound, "produit %s", productID)
	}
	return p.namespaceFields(namespace), nil
}

func (m *Memory) ListProducts(ctx context.Context, namespace string, first int, after string) (*ProductPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := 0
	if after != "" {
		n, err := strconv.Atoi(after)
		if err != nil || n < 0 {
			return nil, errors.Wrapf(ErrInvalidCursor, "%q", after)
		}
		start = n
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	page := &ProductPage{}
	if start >= len(m.order) {
		return page, nil
	}
	end := start + first
	if first <= 0 || end > len(m.order) {
		end = len(m.order)
	}
	for _, id := range m.order[start:end] {
		p := m.products[id]
		page.Products = append(page.Products, Product{ID: id, Title: p.title, Metafields: p.namespaceFields(namespace)})
	}
	page.HasNextPage = end < len(m.order)
	page.EndCursor = strconv.Itoa(end)
	return page, nil
}

func (m *Memory) SetMetafields(ctx context.Context, inputs []MetafieldInput) ([]UserError, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	userErrs := ValidateInputs(inputs, func(id string) bool {
		_, ok := m.products[id]
		return ok
	})
	if len(userErrs) > 0 {
		return userErrs, nil
	}
	for _, in := range inputs {
		m.products[in.OwnerID].fields[fieldKey(in.Namespace, in.Key)] = Metafield{
			Namespace: in.Namespace,
			Key:       in.Key,
			Value:     in.Value,
			Type:      in.Type,
		}
	}
	return nil, nil
}

func (p *memoryProduct) namespaceFields(namespace string) []Metafield {
	out := make([]Metafield, 0, len(p.fields))
	for _, f := range p.fields {
		if f.Namespace == namespace {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func fieldKey(namespace, key string) string {
	return namespace + "." + key
}
