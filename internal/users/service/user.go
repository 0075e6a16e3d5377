package service

import (
	"context"
	"errors"

	userserrors "clinicbook/internal/users/errors"
	"clinicbook/internal/users/repository"
	"clinicbook/internal/users/validator"
	"clinicbook/pkg/auth"
	"clinicbook/pkg/config"
	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/model"
	"clinicbook/pkg/sanitizer"

	"golang.org/x/crypto/bcrypt"
)

// AppointmentSource is the slice of the appointments repository the
// profile views need.
type AppointmentSource interface {
	FindByPatient(ctx context.Context, patientID string, limit int, offset int64) ([]*model.Appointment, error)
	FindByDoctor(ctx context.Context, doctorID string) ([]*model.Appointment, error)
}

// ScheduleSource lists a doctor's availability windows for the profile.
type ScheduleSource interface {
	FindByDoctor(ctx context.Context, doctorID string, limit int, offset int64) ([]*model.Schedule, error)
}

type UserService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenPair, error)
	DoctorSignup(ctx context.Context, req *model.RegisterRequest) (*model.TokenPair, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error)
	Profile(ctx context.Context, actor model.Actor) (any, error)
	UpdateProfile(ctx context.Context, actor model.Actor, update *model.ProfileUpdate) error
	Doctors(ctx context.Context, specialization, location string, limit int, offset int64) ([]model.DoctorListing, int64, error)
	DoctorByID(ctx context.Context, id string) (*model.DoctorListing, error)
}

type userService struct {
	repo         repository.UserRepository
	appointments AppointmentSource
	schedules    ScheduleSource
	validator    *validator.UserValidator
	tokens       *auth.TokenManager
	cfg          *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	appointments AppointmentSource,
	schedules ScheduleSource,
	validator *validator.UserValidator,
	tokens *auth.TokenManager,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:         repo,
		appointments: appointments,
		schedules:    schedules,
		validator:    validator,
		tokens:       tokens,
		cfg:          cfg,
	}
}

// Register creates a patient account and signs them in.
func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenPair, error) {
	return s.register(ctx, req, model.RolePatient)
}

// DoctorSignup creates a doctor account. The practice record is created
// empty in the same flow and filled in through profile updates.
func (s *userService) DoctorSignup(ctx context.Context, req *model.RegisterRequest) (*model.TokenPair, error) {
	return s.register(ctx, req, model.RoleDoctor)
}

func (s *userService) register(ctx context.Context, req *model.RegisterRequest, role string) (*model.TokenPair, error) {
	s.sanitizeRegister(req)

	if req.Role != "" && req.Role != role {
		return nil, apperrors.FieldValidation("role", "Role cannot be chosen on this endpoint")
	}

	if err := s.validator.ValidateRegister(req); err != nil {
		return nil, s.asValidationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.cfg.Log.Error("Failed to hash password", "error", err)
		return nil, apperrors.Internal("Failed to process registration", err)
	}

	user := &model.User{
		FullName:     req.FullName,
		MobileNumber: req.MobileNumber,
		PasswordHash: string(hash),
		Role:         role,
		Address:      req.Address,
		Active:       true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateMobile) {
			return nil, apperrors.Conflict("An account with this mobile number already exists")
		}
		s.cfg.Log.Error("Failed to create user", "mobile_number", req.MobileNumber, "error", err)
		return nil, apperrors.Internal("Failed to create account", err)
	}

	if role == model.RoleDoctor {
		detail := &model.DoctorDetail{UserID: user.ID}
		if err := s.repo.CreateDoctorDetail(ctx, detail); err != nil {
			s.cfg.Log.Error("Failed to create doctor detail", "user_id", user.ID, "error", err)
			return nil, apperrors.Internal("Failed to create doctor record", err)
		}
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		s.cfg.Log.Error("Failed to issue tokens", "user_id", user.ID, "error", err)
		return nil, apperrors.Internal("Failed to issue tokens", err)
	}

	s.cfg.Log.Info("User registered successfully", "user_id", user.ID, "role", role)
	return pair, nil
}

func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenPair, error) {
	req.MobileNumber = sanitizer.NormalizeMobile(req.MobileNumber)

	if err := s.validator.ValidateLogin(req); err != nil {
		return nil, s.asValidationError(err)
	}

	user, err := s.repo.FindByMobile(ctx, req.MobileNumber)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid mobile number or password")
		}
		s.cfg.Log.Error("Failed to look up user", "error", err)
		return nil, apperrors.Internal("Failed to sign in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized("Invalid mobile number or password")
	}

	if !user.Active {
		return nil, apperrors.Forbidden("This account has been deactivated")
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		s.cfg.Log.Error("Failed to issue tokens", "user_id", user.ID, "error", err)
		return nil, apperrors.Internal("Failed to issue tokens", err)
	}

	s.cfg.Log.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return pair, nil
}

// Refresh exchanges a refresh token for a fresh pair. The user record
// is re-read so revoked or deactivated accounts drop out at rotation.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	actor, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.Unauthorized("Account no longer exists")
	}
	if !user.Active {
		return nil, apperrors.Forbidden("This account has been deactivated")
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		s.cfg.Log.Error("Failed to issue tokens", "user_id", user.ID, "error", err)
		return nil, apperrors.Internal("Failed to issue tokens", err)
	}
	return pair, nil
}

// Profile returns the role-shaped view of the actor's account: patients
// see their bookings, doctors see their practice record, windows, and
// claimed slots, admins see just the account.
func (s *userService) Profile(ctx context.Context, actor model.Actor) (any, error) {
	user, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", actor.ID)
		}
		s.cfg.Log.Error("Failed to load user", "user_id", actor.ID, "error", err)
		return nil, apperrors.Internal("Failed to load profile", err)
	}

	switch user.Role {
	case model.RoleDoctor:
		return s.doctorProfile(ctx, user)
	case model.RoleAdmin:
		return &model.AdminProfile{User: *user}, nil
	default:
		return s.patientProfile(ctx, user)
	}
}

func (s *userService) patientProfile(ctx context.Context, user *model.User) (*model.PatientProfile, error) {
	appointments, err := s.appointments.FindByPatient(ctx, user.ID, config.DefaultPaginationLimit, 0)
	if err != nil {
		s.cfg.Log.Error("Failed to load patient appointments", "user_id", user.ID, "error", err)
		return nil, apperrors.Internal("Failed to load profile", err)
	}

	booked := make([]model.Appointment, 0, len(appointments))
	for _, a := range appointments {
		booked = append(booked, *a)
	}

	return &model.PatientProfile{
		User:               *user,
		BookedAppointments: booked,
	}, nil
}

func (s *userService) doctorProfile(ctx context.Context, user *model.User) (*model.DoctorProfile, error) {
	detail, err := s.repo.FindDoctorDetail(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, userserrors.ErrNotFound) {
			s.cfg.Log.Error("Failed to load doctor detail", "user_id", user.ID, "error", err)
			return nil, apperrors.Internal("Failed to load profile", err)
		}
		detail = &model.DoctorDetail{UserID: user.ID}
	}

	schedules, err := s.schedules.FindByDoctor(ctx, user.ID, config.DefaultPaginationLimit, 0)
	if err != nil {
		s.cfg.Log.Error("Failed to load doctor schedules", "user_id", user.ID, "error", err)
		return nil, apperrors.Internal("Failed to load profile", err)
	}

	appointments, err := s.appointments.FindByDoctor(ctx, user.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to load doctor appointments", "user_id", user.ID, "error", err)
		return nil, apperrors.Internal("Failed to load profile", err)
	}

	patientIDs := make([]string, 0, len(appointments))
	for _, a := range appointments {
		patientIDs = append(patientIDs, a.PatientID)
	}
	names, err := s.repo.FindNamesByIDs(ctx, patientIDs)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve patient names", "user_id", user.ID, "error", err)
		return nil, apperrors.Internal("Failed to load profile", err)
	}

	slots := make([]model.BookedSlot, 0, len(appointments))
	for _, a := range appointments {
		slots = append(slots, model.BookedSlot{
			AppointmentID:   a.ID,
			PatientName:     names[a.PatientID],
			ScheduleID:      a.ScheduleID,
			AppointmentTime: a.AppointmentTime,
			Notes:           a.Notes,
			Status:          a.Status,
		})
	}

	return &model.DoctorProfile{
		User:         *user,
		DoctorDetail: *detail,
		Schedules:    schedules,
		BookedSlots:  slots,
	}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor model.Actor, update *model.ProfileUpdate) error {
	s.sanitizeProfileUpdate(update)

	if err := s.validator.ValidateProfileUpdate(update); err != nil {
		return s.asValidationError(err)
	}

	if update.DoctorDetail != nil && actor.Role != model.RoleDoctor {
		return apperrors.FieldValidation("doctordetail", "Only doctors have a practice record")
	}

	if err := s.repo.UpdateProfile(ctx, actor.ID, update); err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("User", actor.ID)
		}
		s.cfg.Log.Error("Failed to update profile", "user_id", actor.ID, "error", err)
		return apperrors.Internal("Failed to update profile", err)
	}

	if update.DoctorDetail != nil {
		if err := s.repo.UpdateDoctorDetail(ctx, actor.ID, update.DoctorDetail); err != nil {
			s.cfg.Log.Error("Failed to update doctor detail", "user_id", actor.ID, "error", err)
			return apperrors.Internal("Failed to update doctor record", err)
		}
	}

	s.cfg.Log.Info("Profile updated", "user_id", actor.ID)
	return nil
}

func (s *userService) Doctors(ctx context.Context, specialization, location string, limit int, offset int64) ([]model.DoctorListing, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	specialization = sanitizer.TrimAndNormalize(specialization)
	location = sanitizer.TrimAndNormalize(location)

	doctors, err := s.repo.FindDoctors(ctx, specialization, location, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list doctors", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve doctors", err)
	}

	count, err := s.repo.CountDoctors(ctx, specialization, location)
	if err != nil {
		s.cfg.Log.Error("Failed to count doctors", "error", err)
		return nil, 0, apperrors.Internal("Failed to count doctors", err)
	}

	return doctors, count, nil
}

// DoctorByID is the public doctor detail view. Deactivated accounts and
// non-doctors are indistinguishable from absent ones.
func (s *userService) DoctorByID(ctx context.Context, id string) (*model.DoctorListing, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, userserrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Doctor", id)
		case errors.Is(err, userserrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid doctor ID format")
		}
		s.cfg.Log.Error("Failed to load doctor", "doctor_id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve doctor", err)
	}

	if user.Role != model.RoleDoctor || !user.Active {
		return nil, apperrors.NotFoundWithID("Doctor", id)
	}

	detail, err := s.repo.FindDoctorDetail(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, userserrors.ErrNotFound) {
			s.cfg.Log.Error("Failed to load doctor detail", "doctor_id", id, "error", err)
			return nil, apperrors.Internal("Failed to retrieve doctor", err)
		}
		detail = &model.DoctorDetail{UserID: user.ID}
	}

	return &model.DoctorListing{
		ID:              user.ID,
		FullName:        user.FullName,
		Specialization:  detail.Specialization,
		Location:        detail.Location,
		ExperienceYears: detail.ExperienceYears,
		ConsultationFee: detail.ConsultationFee,
	}, nil
}

func (s *userService) sanitizeRegister(req *model.RegisterRequest) {
	req.FullName = sanitizer.NormalizeName(req.FullName)
	req.MobileNumber = sanitizer.NormalizeMobile(req.MobileNumber)
	req.Address = sanitizer.TrimAndNormalize(req.Address)
}

func (s *userService) sanitizeProfileUpdate(update *model.ProfileUpdate) {
	if update.FullName != "" {
		update.FullName = sanitizer.NormalizeName(update.FullName)
	}
	if update.Email != "" {
		update.Email = sanitizer.TrimAndNormalize(update.Email)
	}
	if update.Address != "" {
		update.Address = sanitizer.TrimAndNormalize(update.Address)
	}
	if update.DoctorDetail != nil {
		update.DoctorDetail.LicenseNumber = sanitizer.TrimAndNormalize(update.DoctorDetail.LicenseNumber)
		update.DoctorDetail.Specialization = sanitizer.TrimAndNormalize(update.DoctorDetail.Specialization)
		update.DoctorDetail.Location = sanitizer.TrimAndNormalize(update.DoctorDetail.Location)
	}
}

func (s *userService) asValidationError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return apperrors.FieldValidation(ve[0].Field, ve[0].Message)
	}
	return apperrors.Validation("Validation failed", map[string]any{
		"error": err.Error(),
	})
}
