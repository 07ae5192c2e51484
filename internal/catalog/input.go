package catalog

import (
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-promo/internal/common"
	"github.com/noah-isme/toko-promo/internal/promotion"
)

// PromotionInput is the admin payload for creating or replacing a promotion.
type PromotionInput struct {
	Name            string                `json:"name" validate:"required,max=200"`
	Slug            string                `json:"slug" validate:"omitempty,max=200"`
	Description     string                `json:"description" validate:"max=2000"`
	ThumbnailURL    string                `json:"thumbnailUrl" validate:"omitempty,url"`
	DiscountKind    string                `json:"discountKind" validate:"required,oneof=discount_amount gift"`
	DiscountAmount  *decimal.Decimal      `json:"discountAmount"`
	IsActive        *bool                 `json:"isActive"`
	StartsAt        *time.Time            `json:"startsAt"`
	EndsAt          *time.Time            `json:"endsAt"`
	ConditionGroups []ConditionGroupInput `json:"conditionGroups" validate:"required,min=1,dive"`
	GiftItems       []GiftItemInput       `json:"giftItems" validate:"dive"`
}

// ConditionGroupInput is one condition group of the payload. Operator defaults to "all".
type ConditionGroupInput struct {
	Operator string                 `json:"operator" validate:"omitempty,oneof=all any"`
	Details  []ConditionDetailInput `json:"details" validate:"required,min=1,dive"`
}

// ConditionDetailInput requires a quantity of one product.
type ConditionDetailInput struct {
	ProductID        uuid.UUID `json:"productId"`
	RequiredQuantity int       `json:"requiredQuantity" validate:"gt=0"`
}

// GiftItemInput is one free product line.
type GiftItemInput struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// Normalize trims text fields, fills the slug and defaults operators.
func (in PromotionInput) Normalize() PromotionInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.ThumbnailURL = strings.TrimSpace(in.ThumbnailURL)
	in.DiscountKind = strings.ToLower(strings.TrimSpace(in.DiscountKind))
	in.Slug = Slugify(in.Slug)
	if in.Slug == "" {
		in.Slug = Slugify(in.Name)
	}
	groups := make([]ConditionGroupInput, len(in.ConditionGroups))
	for i, g := range in.ConditionGroups {
		g.Operator = strings.ToLower(strings.TrimSpace(g.Operator))
		if g.Operator == "" {
			g.Operator = string(promotion.OperatorAll)
		}
		groups[i] = g
	}
	in.ConditionGroups = groups
	return in
}

// Validate checks struct tags and the cross-field authoring rules.
// Violations are returned as a 400 AppError wrapping ErrInvalidInput.
func (in PromotionInput) Validate() error {
	details := map[string]string{}
	if err := validate.Struct(in); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				details[fieldPath(fe)] = validationMessage(fe)
			}
		} else {
			return invalidInput(map[string]string{"body": err.Error()})
		}
	}

	switch promotion.DiscountKind(in.DiscountKind) {
	case promotion.KindDiscountAmount:
		if in.DiscountAmount == nil || !in.DiscountAmount.IsPositive() {
			details["discountAmount"] = "must be greater than 0 for discount_amount promotions"
		}
		if len(in.GiftItems) > 0 {
			details["giftItems"] = "must be empty for discount_amount promotions"
		}
	case promotion.KindGift:
		if len(in.GiftItems) == 0 {
			details["giftItems"] = "must not be empty for gift promotions"
		}
		if in.DiscountAmount != nil {
			details["discountAmount"] = "must be empty for gift promotions"
		}
	}
	if in.StartsAt != nil && in.EndsAt != nil && !in.StartsAt.Before(*in.EndsAt) {
		details["endsAt"] = "must be after startsAt"
	}
	for i, g := range in.ConditionGroups {
		for j, d := range g.Details {
			if d.ProductID == uuid.Nil {
				details[fmt.Sprintf("conditionGroups[%d].details[%d].productId", i, j)] = "is required"
			}
		}
	}
	for i, gift := range in.GiftItems {
		if gift.ProductID == uuid.Nil {
			details[fmt.Sprintf("giftItems[%d].productId", i)] = "is required"
		}
	}
	if in.Slug == "" && in.Name != "" {
		details["slug"] = "could not be derived from name"
	}

	if len(details) > 0 {
		return invalidInput(details)
	}
	return nil
}

// Definition builds the engine view of the input for promotion id.
func (in PromotionInput) Definition(id uuid.UUID) promotion.Promotion {
	def := promotion.Promotion{
		ID:       id,
		Name:     in.Name,
		Kind:     promotion.DiscountKind(in.DiscountKind),
		IsActive: in.IsActive == nil || *in.IsActive,
		StartsAt: in.StartsAt,
		EndsAt:   in.EndsAt,
	}
	if in.DiscountAmount != nil {
		amount := *in.DiscountAmount
		def.DiscountAmount = &amount
	}
	def.ConditionGroups = make([]promotion.ConditionGroup, 0, len(in.ConditionGroups))
	for _, g := range in.ConditionGroups {
		group := promotion.ConditionGroup{Operator: promotion.Operator(g.Operator)}
		for _, d := range g.Details {
			group.Details = append(group.Details, promotion.ConditionDetail{ProductID: d.ProductID, RequiredQuantity: d.RequiredQuantity})
		}
		def.ConditionGroups = append(def.ConditionGroups, group)
	}
	def.GiftItems = make([]promotion.GiftLine, 0, len(in.GiftItems))
	for _, gift := range in.GiftItems {
		def.GiftItems = append(def.GiftItems, promotion.GiftLine{ProductID: gift.ProductID, Quantity: gift.Quantity})
	}
	return def
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

func invalidInput(details map[string]string) error {
	return common.ValidationFailed("promotion input is invalid", details, ErrInvalidInput)
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "url":
		return "must be a valid URL"
	}
	return "is invalid"
}
