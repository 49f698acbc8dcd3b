package user

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/zawadi/chekechea/core"
)

var (
	// errors
	ErrNotFound   = errors.New("user not found")
	ErrUserExists = errors.New("a user with this email already exists")
	ErrNotInvited = errors.New("user is not pending an invite")

	invalidValueText = "invalid value"
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, orgID, email string, excludedUsers []User, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on User.Name or User.Email.
		QueryUsers(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool, exec ...core.DBExecutor) (User, error)
		DeleteUsersByID(ctx context.Context, orgID string, ids []string, exec ...core.DBExecutor) (int, error)
	}

	ServiceInterface interface {
		CheckUniqueness(orgID, email string, exclUsers ...User) error
		Invite(ctx context.Context, orgID string, nu NewUser) (User, error)
		AcceptInvite(ctx context.Context, data AcceptInvite) (User, error)
		Query(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, orgID, email string) (User, error)
		Update(ctx context.Context, origUsr User, uu UpdateUser) (User, error)
		SetLastSeen(ctx context.Context, usr User) (User, error)
		Delete(ctx context.Context, orgID string, ids ...string) error
	}

	service struct {
		db      core.DB
		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository, mailSvc core.EmailService, logger core.Logger) *service {
	return &service{
		db:      db,
		repo:    repo,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func (svc *service) CheckUniqueness(orgID, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), orgID, email, exclUsers); err != nil {
		if err == ErrUserExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Invite creates an inactive User and emails them an activation link.
func (svc *service) Invite(ctx context.Context, orgID string, nu NewUser) (User, error) {
	now := time.Now().UTC()
	isActive := false
	usr := User{
		OrgID:     orgID,
		Name:      nu.Name,
		Email:     nu.Email,
		Phone:     nu.Phone,
		IsActive:  &isActive,
		Roles:     nu.Roles,
		RoomIDs:   nu.RoomIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	svc.sendInvite(usr)
	return usr, nil
}

func (svc *service) sendInvite(usr User) {
	token, err := MakeToken(usr)
	if err != nil {
		svc.logger.Error("generating invite token", err, usr)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "You have been invited",
		TemplateName: "user-invite",
		TemplateData: struct {
			Name  string
			UID   string
			Token string
		}{usr.Name, EncodeUID(usr), token},
	})
}

func (svc *service) AcceptInvite(ctx context.Context, data AcceptInvite) (User, error) {
	uid, err := decodeUID(data.UID)
	if err != nil {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "uid", Error: invalidValueText})
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: uid})
	if err != nil {
		if err == ErrNotFound {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "uid", Error: invalidValueText})
		}
		return User{}, err
	}
	if usr.Active() {
		return User{}, core.NewValidationError(ErrNotInvited, core.FieldError{Field: "token", Error: invalidValueText})
	}
	if err := verifyToken(usr, data.Token); err != nil {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "token", Error: invalidValueText})
	}

	isActive := true
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr, &isActive)
}

func (svc *service) Query(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	if filter != nil && filter.IsEmpty() {
		filter = nil
	}
	return svc.repo.QueryUsers(ctx, orgID, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, orgID, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{OrgID: orgID, Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) Update(ctx context.Context, origUsr User, uu UpdateUser) (User, error) {
	usr := origUsr
	usr.Name = uu.Name
	usr.Email = uu.Email
	usr.Phone = uu.Phone
	if uu.Roles != nil {
		usr.Roles = uu.Roles
	}
	if uu.RoomIDs != nil {
		usr.RoomIDs = uu.RoomIDs
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}

func (svc *service) SetLastSeen(ctx context.Context, usr User) (User, error) {
	usr.LastSeen = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr, nil)
}

func (svc *service) Delete(ctx context.Context, orgID string, ids ...string) error {
	_, err := svc.repo.DeleteUsersByID(ctx, orgID, ids)
	return err
}
