package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"workboard/pkg/domain"
)

// Collection names shared by every backend that stores documents by name.
const (
	CollectionRole         = "role"
	CollectionUser         = "user"
	CollectionProject      = "project"
	CollectionPart         = "part"
	CollectionMessage      = "message"
	CollectionNotification = "notification"
	CollectionInsight      = "insight"
)

// Collections lists every collection name, including ones this service never writes.
var Collections = []string{
	CollectionRole,
	CollectionUser,
	CollectionProject,
	CollectionPart,
	CollectionMessage,
	CollectionNotification,
	CollectionInsight,
}

// MongoStore implements Store on a MongoDB database, one collection per entity.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects, verifies the connection and ensures indexes.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := &MongoStore{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionPart: {
			{Keys: bson.D{{Key: "project_id", Value: 1}}},
			{Keys: bson.D{{Key: "assigned_user_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		CollectionNotification: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		CollectionProject: {
			{Keys: bson.D{{Key: "creator_id", Value: 1}}},
			{Keys: bson.D{{Key: "tags", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

// Ping checks the primary.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// CreateRole upserts a role keyed by name.
func (s *MongoStore) CreateRole(ctx context.Context, r domain.Role) error {
	doc := roleToDoc(r)
	_, err := s.db.Collection(CollectionRole).ReplaceOne(ctx, bson.M{"_id": r.Name}, doc, options.Replace().SetUpsert(true))
	return err
}

// GetRole looks up a role by name.
func (s *MongoStore) GetRole(ctx context.Context, name string) (domain.Role, bool, error) {
	var doc roleDoc
	ok, err := s.findOne(ctx, CollectionRole, bson.M{"_id": name}, &doc)
	if err != nil || !ok {
		return domain.Role{}, ok, err
	}
	return doc.toDomain(), true, nil
}

// ListRoles returns roles in natural order.
func (s *MongoStore) ListRoles(ctx context.Context, limit int) ([]domain.Role, error) {
	var docs []roleDoc
	if err := s.findMany(ctx, CollectionRole, bson.M{}, limit, nil, &docs); err != nil {
		return nil, err
	}
	res := make([]domain.Role, 0, len(docs))
	for _, d := range docs {
		res = append(res, d.toDomain())
	}
	return res, nil
}

// CreateUser inserts a user.
func (s *MongoStore) CreateUser(ctx context.Context, u domain.User) error {
	_, err := s.db.Collection(CollectionUser).InsertOne(ctx, userToDoc(u))
	return err
}

// GetUser returns a user by ID.
func (s *MongoStore) GetUser(ctx context.Context, id string) (domain.User, bool, error) {
	var doc userDoc
	ok, err := s.findOne(ctx, CollectionUser, bson.M{"_id": id}, &doc)
	if err != nil || !ok {
		return domain.User{}, ok, err
	}
	return doc.toDomain(), true, nil
}

// ListUsers returns users in natural order.
func (s *MongoStore) ListUsers(ctx context.Context, limit int) ([]domain.User, error) {
	var docs []userDoc
	if err := s.findMany(ctx, CollectionUser, bson.M{}, limit, nil, &docs); err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		res = append(res, d.toDomain())
	}
	return res, nil
}

// CreateProject inserts a project.
func (s *MongoStore) CreateProject(ctx context.Context, p domain.Project) error {
	_, err := s.db.Collection(CollectionProject).InsertOne(ctx, projectToDoc(p))
	return err
}

// GetProject returns a project by ID.
func (s *MongoStore) GetProject(ctx context.Context, id string) (domain.Project, bool, error) {
	var doc projectDoc
	ok, err := s.findOne(ctx, CollectionProject, bson.M{"_id": id}, &doc)
	if err != nil || !ok {
		return domain.Project{}, ok, err
	}
	return doc.toDomain(), true, nil
}

// ListProjects returns projects matching f. A tag filter matches array membership.
func (s *MongoStore) ListProjects(ctx context.Context, f ProjectFilter) ([]domain.Project, error) {
	filter := bson.M{}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}
	if f.CreatorID != "" {
		filter["creator_id"] = f.CreatorID
	}
	if f.Archived != nil {
		filter["archived"] = *f.Archived
	}
	var docs []projectDoc
	if err := s.findMany(ctx, CollectionProject, filter, f.Limit, nil, &docs); err != nil {
		return nil, err
	}
	res := make([]domain.Project, 0, len(docs))
	for _, d := range docs {
		res = append(res, d.toDomain())
	}
	return res, nil
}

// SetProjectProgress sets progress and updated_at.
func (s *MongoStore) SetProjectProgress(ctx context.Context, id string, progress float64, at time.Time) (bool, error) {
	return s.updateByID(ctx, CollectionProject, id, bson.M{"progress": progress, "updated_at": at})
}

// CreatePart inserts a part.
func (s *MongoStore) CreatePart(ctx context.Context, p domain.Part) error {
	_, err := s.db.Collection(CollectionPart).InsertOne(ctx, partToDoc(p))
	return err
}

// GetPart returns a part by ID.
func (s *MongoStore) GetPart(ctx context.Context, id string) (domain.Part, bool, error) {
	var doc partDoc
	ok, err := s.findOne(ctx, CollectionPart, bson.M{"_id": id}, &doc)
	if err != nil || !ok {
		return domain.Part{}, ok, err
	}
	return doc.toDomain(), true, nil
}

// ListParts returns parts matching f.
func (s *MongoStore) ListParts(ctx context.Context, f PartFilter) ([]domain.Part, error) {
	var docs []partDoc
	if err := s.findMany(ctx, CollectionPart, partFilter(f), f.Limit, nil, &docs); err != nil {
		return nil, err
	}
	res := make([]domain.Part, 0, len(docs))
	for _, d := range docs {
		res = append(res, d.toDomain())
	}
	return res, nil
}

// CountParts counts parts matching f.
func (s *MongoStore) CountParts(ctx context.Context, f PartFilter) (int, error) {
	n, err := s.db.Collection(CollectionPart).CountDocuments(ctx, partFilter(f))
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// AssignPart sets assignee and resets status to assigned.
func (s *MongoStore) AssignPart(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	return s.updateByID(ctx, CollectionPart, id, bson.M{
		"assigned_user_id": userID,
		"status":           string(domain.PartAssigned),
		"updated_at":       at,
	})
}

// SetPartStatus updates status and updated_at.
func (s *MongoStore) SetPartStatus(ctx context.Context, id string, status domain.PartStatus, at time.Time) (bool, error) {
	return s.updateByID(ctx, CollectionPart, id, bson.M{"status": string(status), "updated_at": at})
}

// CreateNotification inserts a notification, stamping CreatedAt when zero.
func (s *MongoStore) CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.Collection(CollectionNotification).InsertOne(ctx, notificationToDoc(n)); err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}

// ListNotifications returns a user's notifications oldest first.
func (s *MongoStore) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	var docs []notificationDoc
	sort := bson.D{{Key: "created_at", Value: 1}}
	if err := s.findMany(ctx, CollectionNotification, bson.M{"user_id": userID}, limit, sort, &docs); err != nil {
		return nil, err
	}
	res := make([]domain.Notification, 0, len(docs))
	for _, d := range docs {
		res = append(res, d.toDomain())
	}
	return res, nil
}

func (s *MongoStore) findOne(ctx context.Context, collection string, filter bson.M, dst any) (bool, error) {
	err := s.db.Collection(collection).FindOne(ctx, filter).Decode(dst)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *MongoStore) findMany(ctx context.Context, collection string, filter bson.M, limit int, sort bson.D, dst any) error {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if sort != nil {
		opts.SetSort(sort)
	}
	cur, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	return cur.All(ctx, dst)
}

func (s *MongoStore) updateByID(ctx context.Context, collection, id string, fields bson.M) (bool, error) {
	res, err := s.db.Collection(collection).UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func partFilter(f PartFilter) bson.M {
	filter := bson.M{}
	if f.ProjectID != "" {
		filter["project_id"] = f.ProjectID
	}
	if f.AssignedUserID != "" {
		filter["assigned_user_id"] = f.AssignedUserID
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": statusStrings(f.Statuses)}
	}
	return filter
}
