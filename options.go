package observed

import (
	"github.com/KumKeeHyun/observed/options/property"
)

type propertyOption struct {
	initial bool
}

func (o *propertyOption) SetInitial(initial bool) {
	o.initial = initial
}

func (o *propertyOption) Initial() bool {
	return o.initial
}

func newPropertyOption(opts ...property.Option) *propertyOption {
	propOpt := &propertyOption{
		initial: true,
	}
	for _, opt := range opts {
		opt(propOpt)
	}
	return propOpt
}
