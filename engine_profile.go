package goAccount

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/goAccount/user"
	"github.com/MrEthical07/goAccount/validate"
	"github.com/google/uuid"
)

// UpdateProfile applies the whitelisted profile fields of upd to the
// account. Birthday and gender are validated as in sign-up. Nickname is
// ignored unless the policy allows nickname updates. An empty update returns
// the current account.
func (e *Engine) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*UserResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	patch, err := e.profilePatch(ctx, userID, upd)
	if err != nil {
		e.emitAudit(ctx, auditEventProfileUpdate, false, userID, "", err, nil)
		return nil, err
	}

	var u *user.User
	if patch.Empty() {
		u, err = e.store.FindByID(ctx, userID)
	} else {
		u, err = e.store.Update(ctx, userID, patch)
	}
	if err != nil {
		err = e.lookupFailure(err, "update profile", userID)
		e.emitAudit(ctx, auditEventProfileUpdate, false, userID, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricProfileUpdate)
	e.emitAudit(ctx, auditEventProfileUpdate, true, userID, u.Provenance, nil, nil)
	return &UserResult{OK: true, User: u}, nil
}

func (e *Engine) profilePatch(ctx context.Context, userID string, upd ProfileUpdate) (user.Patch, error) {
	var patch user.Patch

	if upd.Birthday != nil {
		birthday, err := validate.ParseDate("birthday", *upd.Birthday)
		if err != nil {
			return patch, validationFailure(err)
		}
		if err := validate.Birthday(birthday, e.now(), e.config.Policy.MinimumAge); err != nil {
			return patch, validationFailure(err)
		}
		patch.Birthday = &birthday
	}
	if upd.Gender != nil {
		g, err := validate.Gender(*upd.Gender)
		if err != nil {
			return patch, validationFailure(err)
		}
		patch.Gender = &g
	}
	if upd.CellPhone != nil {
		phone := strings.TrimSpace(*upd.CellPhone)
		patch.CellPhone = &phone
	}
	if upd.ZipCode != nil {
		zip := strings.TrimSpace(*upd.ZipCode)
		patch.ZipCode = &zip
	}

	if upd.Nickname != nil && e.config.Policy.AllowNicknameUpdate {
		nickname := strings.ToLower(strings.TrimSpace(*upd.Nickname))
		if nickname == "" || user.LooksLikeID(nickname) {
			return patch, &Failure{Kind: KindValidation, Err: ErrInvalidNickname, Field: "nickname"}
		}
		owner, err := e.store.FindByNickname(ctx, nickname)
		switch {
		case err == nil && owner.ID != userID:
			return patch, &Failure{Kind: KindConflict, Err: ErrNicknameTaken, Field: "nickname"}
		case err != nil && !errors.Is(err, user.ErrNotFound):
			return patch, e.storeFailure("find nickname", userID, err)
		}
		patch.Nickname = &nickname
	}

	return patch, nil
}

// UpdatePreferences replaces the favorite drinks or dishes of the account.
// Any kind other than PreferenceDrinks or PreferenceDishes fails with
// ErrInvalidPreferences.
func (e *Engine) UpdatePreferences(ctx context.Context, userID string, kind PreferenceKind, favorites []user.Favorite) (*UserResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	if favorites == nil {
		favorites = []user.Favorite{}
	}

	var patch user.Patch
	switch kind {
	case PreferenceDrinks:
		patch.FavoriteDrinks = &favorites
	case PreferenceDishes:
		patch.FavoriteDishes = &favorites
	default:
		err := &Failure{Kind: KindValidation, Err: ErrInvalidPreferences, Field: "preferences"}
		e.emitAudit(ctx, auditEventPreferencesUpdate, false, userID, "", err, nil)
		return nil, err
	}

	u, err := e.store.Update(ctx, userID, patch)
	if err != nil {
		err = e.lookupFailure(err, "update preferences", userID)
		e.emitAudit(ctx, auditEventPreferencesUpdate, false, userID, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricPreferencesUpdate)
	e.emitAudit(ctx, auditEventPreferencesUpdate, true, userID, u.Provenance, nil, func() map[string]string {
		return map[string]string{"kind": string(kind)}
	})
	return &UserResult{OK: true, User: u}, nil
}

// AddPromotion attaches p to the account. A code already attached fails with
// ErrExistingPromotion and leaves the list unchanged.
func (e *Engine) AddPromotion(ctx context.Context, userID string, p user.Promotion) (*UserResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	p.Code = strings.TrimSpace(p.Code)
	if err := validate.Required("code", p.Code); err != nil {
		f := validationFailure(err)
		e.emitAudit(ctx, auditEventPromotionRejected, false, userID, "", f, nil)
		return nil, f
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	u, err := e.store.AddPromotion(ctx, userID, p)
	if err != nil {
		if errors.Is(err, user.ErrPromotionExists) {
			e.metricInc(MetricPromotionDuplicate)
			err = &Failure{Kind: KindConflict, Err: ErrExistingPromotion, Field: "code"}
		} else {
			err = e.lookupFailure(err, "add promotion", userID)
		}
		e.emitAudit(ctx, auditEventPromotionRejected, false, userID, "", err, func() map[string]string {
			return map[string]string{"code": p.Code}
		})
		return nil, err
	}

	e.metricInc(MetricPromotionAdded)
	e.emitAudit(ctx, auditEventPromotionAdded, true, userID, u.Provenance, nil, func() map[string]string {
		return map[string]string{"code": p.Code}
	})
	return &UserResult{OK: true, User: u}, nil
}
