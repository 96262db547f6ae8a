package domain

var Tables = []interface{}{
	// System
	&SysOperator{},
	&LocaleAssignment{},
	// Commerce
	&Commerce{},
	&Locale{},
	&CommerceAttachment{},
}
