package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hooterhq/hooter-backend/api/responses"
	"github.com/hooterhq/hooter-backend/api/validators"
	brandsvc "github.com/hooterhq/hooter-backend/internal/brands"
	"github.com/hooterhq/hooter-backend/pkg/enums"
	pkgerrors "github.com/hooterhq/hooter-backend/pkg/errors"
	"github.com/hooterhq/hooter-backend/pkg/logger"
)

// BrandCreate handles brand creation for the authenticated user.
func BrandCreate(svc brandsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createBrandRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		brand, err := svc.CreateBrand(r.Context(), userID, brandsvc.CreateBrandInput{
			Name: strings.TrimSpace(payload.Name),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, brand)
	}
}

// BrandList returns every brand the authenticated user can access.
func BrandList(svc brandsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		brands, err := svc.ListBrands(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, brands)
	}
}

// BrandDetail returns one brand if the caller has access to it.
func BrandDetail(svc brandsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		brandID, err := validators.ParseUUIDParam(r, "brandId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		brand, err := svc.GetBrand(r.Context(), userID, brandID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, brand)
	}
}

// BrandGrantAccess grants another user a role on the brand. Owner only.
func BrandGrantAccess(svc brandsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		brandID, err := validators.ParseUUIDParam(r, "brandId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload grantAccessRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.GrantAccess(r.Context(), userID, brandID, input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "granted"})
	}
}

// BrandRevokeAccess removes a user's role on the brand. Owner only.
func BrandRevokeAccess(svc brandsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorUserID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		brandID, err := validators.ParseUUIDParam(r, "brandId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RevokeAccess(r.Context(), actorUserID, brandID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "revoked"})
	}
}

type createBrandRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

type grantAccessRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role" validate:"required"`
}

func (r grantAccessRequest) toInput() (brandsvc.GrantAccessInput, error) {
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return brandsvc.GrantAccessInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	role, err := enums.ParseBrandRole(strings.TrimSpace(r.Role))
	if err != nil {
		return brandsvc.GrantAccessInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
	}
	return brandsvc.GrantAccessInput{UserID: userID, Role: role}, nil
}
