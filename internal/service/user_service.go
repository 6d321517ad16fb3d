package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository"
)

type RegisterRequest struct {
	Username string   `json:"username" validate:"required,min=3,max=100"`
	Password string   `json:"password" validate:"required,password"`
	Roles    []string `json:"roles"`
}

// UpdateUserRequest leaves nil fields untouched; an empty role list keeps the
// current roles.
type UpdateUserRequest struct {
	Username *string  `json:"username" validate:"omitempty,min=3,max=100"`
	Password *string  `json:"password" validate:"omitempty,password"`
	Roles    []string `json:"roles"`
}

type ResetPasswordRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,password"`
}

type RoleNamesRequest struct {
	Data []string `json:"data" validate:"required,min=1"`
}

type UserService struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	hasher PasswordHasher
	guard  LoginGuard
	audit  Auditor
}

func NewUserService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	hasher PasswordHasher,
	guard LoginGuard,
	audit Auditor,
) *UserService {
	return &UserService{
		users:  users,
		roles:  roles,
		hasher: hasher,
		guard:  guard,
		audit:  audit,
	}
}

// SelfRegister creates a user that records itself as its creator.
func (s *UserService) SelfRegister(ctx context.Context, req RegisterRequest) (*domain.UserDetails, error) {
	user, err := s.create(ctx, req, nil, true)
	if err != nil {
		return nil, err
	}
	s.audit.Record(user.Username, domain.ActionSelfRegister)
	return s.details(ctx, user)
}

// Register creates a user on behalf of an existing, enabled creator.
func (s *UserService) Register(ctx context.Context, req RegisterRequest, creatorID int64) (*domain.UserDetails, error) {
	user, err := s.create(ctx, req, &creatorID, false)
	if err != nil {
		return nil, err
	}
	s.audit.Record(user.Username, domain.ActionRegister)
	return s.details(ctx, user)
}

// create is the single path for new users. Without a creator the call must
// be an explicit bootstrap, in which case the user becomes its own creator.
func (s *UserService) create(ctx context.Context, req RegisterRequest, creatorID *int64, bootstrap bool) (*domain.User, error) {
	if creatorID == nil && !bootstrap {
		return nil, ErrCreatorRequired
	}
	if creatorID != nil {
		if _, err := findActor(ctx, s.users, *creatorID); err != nil {
			return nil, err
		}
	}

	roles, err := s.roles.FindActiveByNames(ctx, req.Roles)
	if err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		Username:              req.Username,
		PasswordHash:          digest,
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
		CreatedBy:             creatorID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: user %s", ErrEntityExists, req.Username)
		}
		return nil, err
	}

	if bootstrap && creatorID == nil {
		self := user.ID
		user.CreatedBy = &self
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	if err := s.users.AddRoles(ctx, user.ID, roleIDs(roles)); err != nil {
		return nil, err
	}
	user.Roles = roles

	return user, nil
}

// Update changes the enabled user named username.
func (s *UserService) Update(ctx context.Context, username string, req UpdateUserRequest, actorID int64) (*domain.UserDetails, error) {
	user, err := s.findEnabledByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	actor, err := findActor(ctx, s.users, actorID)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Password != nil {
		digest, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = digest
	}
	if len(req.Roles) > 0 {
		roles, err := s.roles.FindActiveByNames(ctx, req.Roles)
		if err != nil {
			return nil, err
		}
		if err := s.users.ReplaceRoles(ctx, user.ID, roleIDs(roles)); err != nil {
			return nil, err
		}
	}

	if err := s.save(ctx, user, actor); err != nil {
		return nil, err
	}

	s.audit.Record(user.Username, domain.ActionUpdate)
	return s.loadDetails(ctx, user)
}

func (s *UserService) ResetPassword(ctx context.Context, req ResetPasswordRequest, actorID int64) (*domain.UserDetails, error) {
	user, err := s.findEnabledByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	actor, err := findActor(ctx, s.users, actorID)
	if err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = digest

	if err := s.save(ctx, user, actor); err != nil {
		return nil, err
	}

	s.audit.Record(user.Username, domain.ActionResetPassword)
	return s.loadDetails(ctx, user)
}

// AssignRoles adds the named active roles to a user; unknown names are ignored.
func (s *UserService) AssignRoles(ctx context.Context, userID int64, roleNames []string, actorID int64) (*domain.UserDetails, error) {
	user, actor, err := s.targetAndActor(ctx, userID, actorID)
	if err != nil {
		return nil, err
	}

	roles, err := s.roles.FindActiveByNames(ctx, roleNames)
	if err != nil {
		return nil, err
	}
	if err := s.users.AddRoles(ctx, user.ID, roleIDs(roles)); err != nil {
		return nil, err
	}
	if err := s.save(ctx, user, actor); err != nil {
		return nil, err
	}

	s.audit.Record(actor.Username, domain.ActionAssignRoles)
	return s.loadDetails(ctx, user)
}

func (s *UserService) RemoveRoles(ctx context.Context, userID int64, roleNames []string, actorID int64) (*domain.UserDetails, error) {
	user, actor, err := s.targetAndActor(ctx, userID, actorID)
	if err != nil {
		return nil, err
	}

	if err := s.users.RemoveRoles(ctx, user.ID, roleNames); err != nil {
		return nil, err
	}
	if err := s.save(ctx, user, actor); err != nil {
		return nil, err
	}

	s.audit.Record(actor.Username, domain.ActionRemoveRoles)
	return s.loadDetails(ctx, user)
}

// SetEnabled activates or deactivates a user. A disabled user can no longer
// authenticate, so outstanding tokens stop working at the filter. Activation
// also lifts any failed-login lock on the username.
func (s *UserService) SetEnabled(ctx context.Context, userID int64, enabled bool, actorID int64) error {
	user, actor, err := s.targetAndActor(ctx, userID, actorID)
	if err != nil {
		return err
	}

	user.Enabled = enabled
	if err := s.save(ctx, user, actor); err != nil {
		return err
	}
	if enabled {
		if err := s.guard.Unlock(ctx, user.Username); err != nil {
			return fmt.Errorf("failed to clear login lock: %w", err)
		}
	}

	action := domain.ActionDeactivateUser
	if enabled {
		action = domain.ActionActivateUser
	}
	s.audit.Record(actor.Username, action)
	return nil
}

// DetailsByUsername returns the outbound view of an enabled user.
func (s *UserService) DetailsByUsername(ctx context.Context, username string) (*domain.UserDetails, error) {
	user, err := s.findEnabledByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.loadDetails(ctx, user)
}

func (s *UserService) findEnabledByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.FindByUsernameEnabled(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrEntityNotFound, username)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) targetAndActor(ctx context.Context, userID, actorID int64) (*domain.User, *domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: user %d", ErrEntityNotFound, userID)
		}
		return nil, nil, err
	}
	actor, err := findActor(ctx, s.users, actorID)
	if err != nil {
		return nil, nil, err
	}
	return user, actor, nil
}

func (s *UserService) save(ctx context.Context, user, actor *domain.User) error {
	updatedBy := actor.ID
	user.UpdatedBy = &updatedBy
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%w: user %s", ErrEntityExists, user.Username)
		}
		return err
	}
	return nil
}

func (s *UserService) loadDetails(ctx context.Context, user *domain.User) (*domain.UserDetails, error) {
	roles, err := s.roles.GetUserRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return s.details(ctx, user)
}

// details resolves creator and updater names with one lookup.
func (s *UserService) details(ctx context.Context, user *domain.User) (*domain.UserDetails, error) {
	var ids []int64
	if user.CreatedBy != nil {
		ids = append(ids, *user.CreatedBy)
	}
	if user.UpdatedBy != nil {
		ids = append(ids, *user.UpdatedBy)
	}
	names, err := s.users.GetUsernames(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := &domain.UserDetails{
		ID:                    user.ID,
		Username:              user.Username,
		Roles:                 user.RoleNames(),
		AccountNonExpired:     user.AccountNonExpired,
		AccountNonLocked:      user.AccountNonLocked,
		CredentialsNonExpired: user.CredentialsNonExpired,
		Enabled:               user.Enabled,
		CreatedAt:             user.CreatedAt,
		UpdatedAt:             user.UpdatedAt,
	}
	if user.CreatedBy != nil {
		out.CreatedBy = names[*user.CreatedBy]
	}
	if user.UpdatedBy != nil {
		out.UpdatedBy = names[*user.UpdatedBy]
	}
	return out, nil
}

// findActor loads the enabled user a mutating call is performed by.
func findActor(ctx context.Context, users repository.UserRepository, id int64) (*domain.User, error) {
	actor, err := users.FindByIDEnabled(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrEntityNotFound, id)
		}
		return nil, err
	}
	return actor, nil
}

func roleIDs(roles []*domain.Role) []int64 {
	ids := make([]int64, 0, len(roles))
	for _, r := range roles {
		ids = append(ids, r.ID)
	}
	return ids
}
