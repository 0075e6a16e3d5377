package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	userserrors "clinicbook/internal/users/errors"
	"clinicbook/pkg/config"
	mongotx "clinicbook/pkg/db/mongo"
	"clinicbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Users"

	doctorDetailsCollection = "Doctor_details"
	schedulesCollection     = "Schedules"
	appointmentsCollection  = "Appointments"
)

type mongoUserRepository struct {
	cfg           *config.Config
	db            *mongo.Database
	collection    *mongo.Collection
	doctorDetails *mongo.Collection
	txManager     mongotx.TransactionManager
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	CreateDoctorDetail(ctx context.Context, detail *model.DoctorDetail) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByMobile(ctx context.Context, mobile string) (*model.User, error)
	FindDoctorDetail(ctx context.Context, userID string) (*model.DoctorDetail, error)
	FindNamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
	UpdateProfile(ctx context.Context, id string, update *model.ProfileUpdate) error
	UpdateDoctorDetail(ctx context.Context, userID string, detail *model.DoctorDetail) error
	UpdateActive(ctx context.Context, id string, active bool) error
	FindDoctors(ctx context.Context, specialization, location string, limit int, offset int64) ([]model.DoctorListing, error)
	CountDoctors(ctx context.Context, specialization, location string) (int64, error)
	FindAll(ctx context.Context, role string, limit int, offset int64) ([]*model.User, error)
	Count(ctx context.Context, role string) (int64, error)
	DeleteCascade(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:           cfg,
		db:            db,
		collection:    db.Collection(CollectionName),
		doctorDetails: db.Collection(doctorDetailsCollection),
		txManager:     mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoUserRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	user.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", userserrors.ErrDuplicateMobile, user.MobileNumber)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid.Hex()
	}
	return nil
}

func (r *mongoUserRepository) CreateDoctorDetail(ctx context.Context, detail *model.DoctorDetail) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	detail.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.doctorDetails.InsertOne(ctx, detail)
	if err != nil {
		return fmt.Errorf("failed to create doctor detail: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		detail.ID = oid.Hex()
	}
	return nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	var user model.User
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", userserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &user, nil
}

func (r *mongoUserRepository) FindByMobile(ctx context.Context, mobile string) (*model.User, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var user model.User
	err := r.collection.FindOne(ctx, bson.M{"mobile_number": mobile}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", userserrors.ErrNotFound, mobile)
		}
		return nil, fmt.Errorf("failed to find user by mobile: %w", err)
	}

	return &user, nil
}

func (r *mongoUserRepository) FindDoctorDetail(ctx context.Context, userID string) (*model.DoctorDetail, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var detail model.DoctorDetail
	err := r.doctorDetails.FindOne(ctx, bson.M{"user_id": userID}).Decode(&detail)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: doctor detail for %s", userserrors.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to find doctor detail: %w", err)
	}

	return &detail, nil
}

// FindNamesByIDs resolves user IDs to full names in one query.
func (r *mongoUserRepository) FindNamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objectIDs = append(objectIDs, oid)
	}
	if len(objectIDs) == 0 {
		return map[string]string{}, nil
	}

	opts := options.Find().SetProjection(bson.M{"full_name": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query user names: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID       string `bson:"_id"`
		FullName string `bson:"full_name"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode user names: %w", err)
	}

	names := make(map[string]string, len(docs))
	for _, d := range docs {
		names[d.ID] = d.FullName
	}
	return names, nil
}

func (r *mongoUserRepository) UpdateProfile(ctx context.Context, id string, update *model.ProfileUpdate) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	set := bson.M{}
	if update.FullName != "" {
		set["full_name"] = update.FullName
	}
	if update.Email != "" {
		set["email"] = update.Email
	}
	if update.Address != "" {
		set["address"] = update.Address
	}
	if len(set) == 0 {
		return nil
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", userserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoUserRepository) UpdateDoctorDetail(ctx context.Context, userID string, detail *model.DoctorDetail) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{
		"license_number":   detail.LicenseNumber,
		"experience_years": detail.ExperienceYears,
		"consultation_fee": detail.ConsultationFee,
		"specialization":   detail.Specialization,
		"location":         detail.Location,
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.doctorDetails.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": time.Now().UTC().Truncate(time.Millisecond)},
	}, opts)
	if err != nil {
		return fmt.Errorf("failed to update doctor detail: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) UpdateActive(ctx context.Context, id string, active bool) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": bson.M{"is_active": active}})
	if err != nil {
		return fmt.Errorf("failed to update user active flag: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", userserrors.ErrNotFound, id)
	}
	return nil
}

// escapeRegexSpecialChars escapes special regex characters to prevent ReDoS attacks
func escapeRegexSpecialChars(s string) string {
	specialChars := regexp.MustCompile(`[.*+?^$()[\]{}|\\]`)
	return specialChars.ReplaceAllStringFunc(s, func(match string) string {
		return "\\" + match
	})
}

func (r *mongoUserRepository) doctorFilter(specialization, location string) mongo.Pipeline {
	match := bson.M{"role": model.RoleDoctor, "is_active": true}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$lookup", Value: bson.M{
			"from": doctorDetailsCollection,
			"let":  bson.M{"uid": bson.M{"$toString": "$_id"}},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$user_id", "$$uid"}}}},
			},
			"as": "detail",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"specialization":   bson.M{"$first": "$detail.specialization"},
			"location":         bson.M{"$first": "$detail.location"},
			"experience_years": bson.M{"$ifNull": bson.A{bson.M{"$first": "$detail.experience_years"}, 0}},
			"consultation_fee": bson.M{"$ifNull": bson.A{bson.M{"$first": "$detail.consultation_fee"}, 0}},
		}}},
	}

	detailMatch := bson.M{}
	if specialization != "" {
		detailMatch["specialization"] = bson.M{"$regex": escapeRegexSpecialChars(specialization), "$options": "i"}
	}
	if location != "" {
		detailMatch["location"] = bson.M{"$regex": escapeRegexSpecialChars(location), "$options": "i"}
	}
	if len(detailMatch) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: detailMatch}})
	}

	return pipeline
}

func (r *mongoUserRepository) FindDoctors(ctx context.Context, specialization, location string, limit int, offset int64) ([]model.DoctorListing, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := r.doctorFilter(specialization, location)
	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "full_name", Value: 1}}}},
		bson.D{{Key: "$skip", Value: offset}},
		bson.D{{Key: "$limit", Value: int64(limit)}},
		bson.D{{Key: "$project", Value: bson.M{
			"full_name":        1,
			"specialization":   1,
			"location":         1,
			"experience_years": 1,
			"consultation_fee": 1,
		}}},
	)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to query doctors: %w", err)
	}
	defer cursor.Close(ctx)

	var doctors []model.DoctorListing
	if err = cursor.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("failed to decode doctors: %w", err)
	}
	return doctors, nil
}

func (r *mongoUserRepository) CountDoctors(ctx context.Context, specialization, location string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := r.doctorFilter(specialization, location)
	pipeline = append(pipeline, bson.D{{Key: "$count", Value: "total"}})

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("failed to decode doctor count: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (r *mongoUserRepository) FindAll(ctx context.Context, role string, limit int, offset int64) ([]*model.User, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*model.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (r *mongoUserRepository) Count(ctx context.Context, role string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// DeleteCascade removes the user together with everything hanging off
// them: doctor detail, published schedules, and appointments where they
// appear as doctor or patient. Runs in a single transaction.
func (r *mongoUserRepository) DeleteCascade(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	return r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		result, err := r.collection.DeleteOne(sessCtx, bson.M{"_id": objectID})
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if result.DeletedCount == 0 {
			return fmt.Errorf("%w: %s", userserrors.ErrNotFound, id)
		}

		if _, err := r.doctorDetails.DeleteMany(sessCtx, bson.M{"user_id": id}); err != nil {
			return fmt.Errorf("failed to delete doctor detail: %w", err)
		}
		if _, err := r.db.Collection(schedulesCollection).DeleteMany(sessCtx, bson.M{"doctor_id": id}); err != nil {
			return fmt.Errorf("failed to delete schedules: %w", err)
		}
		if _, err := r.db.Collection(appointmentsCollection).DeleteMany(sessCtx, bson.M{
			"$or": bson.A{bson.M{"doctor_id": id}, bson.M{"patient_id": id}},
		}); err != nil {
			return fmt.Errorf("failed to delete appointments: %w", err)
		}
		return nil
	})
}

func (r *mongoUserRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
