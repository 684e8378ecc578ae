package validation

import "stockroom/internal/models"

var productSystemFields = []string{"id", "date_added", "date_last_updated", "owner_user_id"}

// ProductInput is a complete product body, used for creation and full replacement.
type ProductInput struct {
	Name         string `validate:"notblank"`
	Description  string `validate:"notblank"`
	SKU          string `validate:"notblank"`
	Manufacturer string `validate:"notblank"`
	Quantity     int    `validate:"gte=0"`
}

// Apply overwrites every mutable field of product.
func (in *ProductInput) Apply(product *models.Product) {
	product.Name = in.Name
	product.Description = in.Description
	product.SKU = in.SKU
	product.Manufacturer = in.Manufacturer
	product.Quantity = in.Quantity
}

type productPatchRules struct {
	Name         *string `validate:"omitnil,notblank"`
	Description  *string `validate:"omitnil,notblank"`
	SKU          *string `validate:"omitnil,notblank"`
	Manufacturer *string `validate:"omitnil,notblank"`
}

var patchFieldMessages = map[string]string{
	"Name":         "name required",
	"Description":  "description required",
	"SKU":          "sku required",
	"Manufacturer": "manufacturer required",
}

// NewProduct validates a product creation or replacement body.
func NewProduct(body []byte) (*ProductInput, error) {
	f, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	in := &ProductInput{
		Name:         f.str("name"),
		Description:  f.str("description"),
		SKU:          f.str("sku"),
		Manufacturer: f.str("manufacturer"),
	}
	if err := validate.StructExcept(in, "Quantity"); err != nil {
		return nil, models.NewValidationError(msgProductRequired)
	}

	quantity, ok := f.integer("quantity")
	if !ok {
		return nil, models.NewValidationError(msgQuantity)
	}
	in.Quantity = quantity
	if err := validate.StructPartial(in, "Quantity"); err != nil {
		return nil, models.NewValidationError(msgQuantity)
	}

	if f.has(productSystemFields...) {
		return nil, models.NewValidationError(msgImmutableFields)
	}
	return in, nil
}

// ProductPatch validates a partial update and projects it onto the mutable fields.
// Unknown keys are ignored.
func ProductPatch(body []byte) (*models.ProductPatch, error) {
	f, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	if f.has(productSystemFields...) {
		return nil, models.NewValidationError(msgImmutableFields)
	}

	rules := productPatchRules{
		Name:         f.optionalStr("name"),
		Description:  f.optionalStr("description"),
		SKU:          f.optionalStr("sku"),
		Manufacturer: f.optionalStr("manufacturer"),
	}
	if err := validate.Struct(rules); err != nil {
		field, _ := firstFailure(err)
		return nil, models.NewValidationError(patchFieldMessages[field])
	}

	patch := &models.ProductPatch{
		Name:         rules.Name,
		Description:  rules.Description,
		SKU:          rules.SKU,
		Manufacturer: rules.Manufacturer,
	}
	if f.has("quantity") {
		quantity, ok := f.integer("quantity")
		if !ok || quantity < 0 {
			return nil, models.NewValidationError(msgQuantity)
		}
		patch.Quantity = &quantity
	}

	if patch.Empty() {
		return nil, models.NewValidationError(msgNoUpdatable)
	}
	return patch, nil
}
