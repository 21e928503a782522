package tenantstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/tenancy/pkg/tenancy"
)

// Collection names used by Mongo.
const (
	TenantsCollection = "tenants"
	DomainsCollection = "tenant_domains"
)

// tenantDocument is the stored form of a tenant. The tenant id is the document _id.
type tenantDocument struct {
	ID               string     `bson:"_id"`
	Data             string     `bson:"data"`
	Status           string     `bson:"status"`
	LastAccessedAt   *time.Time `bson:"last_accessed_at,omitempty"`
	AccessCount      int64      `bson:"access_count"`
	AllowedIPs       []string   `bson:"allowed_ips,omitempty"`
	ExpiresAt        *time.Time `bson:"expires_at,omitempty"`
	SecuritySettings string     `bson:"security_settings,omitempty"` // JSON text
	CreatedAt        time.Time  `bson:"created_at"`
	UpdatedAt        time.Time  `bson:"updated_at"`
	DeletedAt        *time.Time `bson:"deleted_at,omitempty"`
}

type domainDocument struct {
	Domain    string    `bson:"_id"`
	TenantID  string    `bson:"tenant_id"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d tenantDocument) tenant() *tenancy.Tenant {
	t := &tenancy.Tenant{
		ID:             d.ID,
		Data:           d.Data,
		Status:         tenancy.Status(d.Status),
		LastAccessedAt: d.LastAccessedAt,
		AccessCount:    uint64(max(d.AccessCount, 0)),
		AllowedIPs:     d.AllowedIPs,
		ExpiresAt:      d.ExpiresAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		DeletedAt:      d.DeletedAt,
	}
	if d.SecuritySettings != "" {
		t.SecuritySettings = json.RawMessage(d.SecuritySettings)
	}
	return t
}

func newTenantDocument(t *tenancy.Tenant) tenantDocument {
	return tenantDocument{
		ID:               t.ID,
		Data:             t.Data,
		Status:           string(t.Status),
		LastAccessedAt:   t.LastAccessedAt,
		AccessCount:      int64(t.AccessCount),
		AllowedIPs:       t.AllowedIPs,
		ExpiresAt:        t.ExpiresAt,
		SecuritySettings: string(t.SecuritySettings),
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		DeletedAt:        t.DeletedAt,
	}
}

// Mongo keeps tenants and domain mappings in two MongoDB collections.
type Mongo struct {
	tenants *mongo.Collection
	domains *mongo.Collection
}

// NewMongo returns a store on db.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		tenants: db.Collection(TenantsCollection),
		domains: db.Collection(DomainsCollection),
	}
}

// EnsureIndexes creates the indexes LoadAll and TenantIDByHost rely on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.tenants.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: 1}}})
	if err != nil {
		return fmt.Errorf("create tenant indexes: %w", err)
	}
	_, err = m.domains.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "tenant_id", Value: 1}}})
	if err != nil {
		return fmt.Errorf("create domain indexes: %w", err)
	}
	return nil
}

// LoadAll returns every tenant that is not soft-deleted, oldest first.
func (m *Mongo) LoadAll(ctx context.Context) ([]*tenancy.Tenant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.tenants.Find(ctx, bson.M{"deleted_at": nil}, opts)
	if err != nil {
		return nil, fmt.Errorf("find tenants: %w", err)
	}
	var docs []tenantDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tenants: %w", err)
	}
	tenants := make([]*tenancy.Tenant, 0, len(docs))
	for _, d := range docs {
		tenants = append(tenants, d.tenant())
	}
	return tenants, nil
}

// TenantIDByHost returns the tenant mapped to host, or "" for unmapped hosts.
func (m *Mongo) TenantIDByHost(ctx context.Context, host string) (string, error) {
	var doc domainDocument
	err := m.domains.FindOne(ctx, bson.M{"_id": strings.ToLower(host)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find tenant domain: %w", err)
	}
	return doc.TenantID, nil
}

// RecordAccess bumps access_count and last_accessed_at.
func (m *Mongo) RecordAccess(ctx context.Context, id string, at time.Time) error {
	_, err := m.tenants.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"access_count": 1},
		"$set": bson.M{"last_accessed_at": at},
	})
	if err != nil {
		return fmt.Errorf("record tenant access: %w", err)
	}
	return nil
}

// Save inserts t or updates its mutable fields. Like the Postgres store, an
// existing tenant keeps its creation time, access statistics and deletion mark.
func (m *Mongo) Save(ctx context.Context, t *tenancy.Tenant) error {
	if err := validateTenant(t); err != nil {
		return err
	}

	update := saveUpdate(newTenantDocument(t), time.Now().UTC())
	_, err := m.tenants.UpdateOne(ctx, bson.M{"_id": t.ID}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save tenant: %w", err)
	}
	return nil
}

func saveUpdate(doc tenantDocument, now time.Time) bson.M {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	onInsert := bson.M{
		"created_at":   doc.CreatedAt,
		"access_count": doc.AccessCount,
	}
	if doc.LastAccessedAt != nil {
		onInsert["last_accessed_at"] = doc.LastAccessedAt
	}
	if doc.DeletedAt != nil {
		onInsert["deleted_at"] = doc.DeletedAt
	}

	set := bson.M{
		"data":       doc.Data,
		"status":     doc.Status,
		"updated_at": now,
	}
	unset := bson.M{}
	setOrUnset := func(field string, v any, empty bool) {
		if empty {
			unset[field] = ""
			return
		}
		set[field] = v
	}
	setOrUnset("allowed_ips", doc.AllowedIPs, doc.AllowedIPs == nil)
	setOrUnset("expires_at", doc.ExpiresAt, doc.ExpiresAt == nil)
	setOrUnset("security_settings", doc.SecuritySettings, doc.SecuritySettings == "")

	update := bson.M{"$set": set, "$setOnInsert": onInsert}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

// MapDomain points host at tenant id.
func (m *Mongo) MapDomain(ctx context.Context, host, id string) error {
	doc := domainDocument{Domain: strings.ToLower(host), TenantID: id, CreatedAt: time.Now().UTC()}
	_, err := m.domains.ReplaceOne(ctx, bson.M{"_id": doc.Domain}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("map tenant domain: %w", err)
	}
	return nil
}
