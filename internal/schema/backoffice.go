package schema

// BackOffice returns the registry of the reseller back-office entity tables.
func BackOffice() *Registry {
	return NewRegistry(
		Origin{
			Kind:        Products,
			DisplayName: "Productos",
			Singular:    "Producto",
			LabelField:  "name",
			Columns: []Column{
				{Name: "id", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "name", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "base_price", Kind: KindDecimal, Required: true, Rules: "gte=0"},
				{Name: "max_profiles", Kind: KindInteger, Required: true, Rules: "min=1"},
				{Name: "allowed_durations", Kind: KindIntArray, Required: true, Rules: "min=1,dive,min=1"},
				{Name: "status", Kind: KindText, Rules: "oneof=active inactive"},
				{Name: "created_at", Kind: KindTimestamp},
			},
		},
		Origin{
			Kind:        Accounts,
			DisplayName: "Cuentas",
			Singular:    "Cuenta",
			Feminine:    true,
			LabelField:  "email",
			Columns: []Column{
				{Name: "id", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "product_id", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "email", Kind: KindText, Required: true, Rules: "email"},
				{Name: "password", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "purchase_date", Kind: KindTimestamp, Required: true},
				{Name: "expiration_date", Kind: KindTimestamp, Required: true},
				{Name: "base_price", Kind: KindDecimal, Required: true, Rules: "gte=0"},
				{Name: "status", Kind: KindText, Rules: "oneof=available in_use expired"},
				{Name: "created_at", Kind: KindTimestamp},
			},
			ForeignKeys: []ForeignKey{{Column: "product_id", Table: "products"}},
		},
		Origin{
			Kind:        Profiles,
			DisplayName: "Perfiles",
			Singular:    "Perfil",
			LabelField:  "name",
			Columns: []Column{
				{Name: "id", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "account_id", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "name", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "pin", Kind: KindText, Required: true},
				{Name: "status", Kind: KindText, Rules: "oneof=available in_use"},
				{Name: "created_at", Kind: KindTimestamp},
			},
			ForeignKeys: []ForeignKey{{Column: "account_id", Table: "accounts"}},
		},
		Origin{
			Kind:        Customers,
			DisplayName: "Clientes",
			Singular:    "Cliente",
			LabelField:  "name",
			Columns: []Column{
				{Name: "id", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "name", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "email", Kind: KindText, Rules: "omitempty,email"},
				{Name: "phone", Kind: KindText},
				{Name: "created_at", Kind: KindTimestamp},
			},
		},
		Origin{
			Kind:        Sales,
			DisplayName: "Ventas",
			Singular:    "Venta",
			Feminine:    true,
			Columns: []Column{
				{Name: "id", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "customer_id", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "product_id", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "account_id", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "profile_id", Kind: KindText},
				{Name: "purchase_date", Kind: KindTimestamp, Required: true},
				{Name: "expiration_date", Kind: KindTimestamp, Required: true},
				{Name: "sale_price", Kind: KindDecimal, Required: true, Rules: "gte=0"},
				{Name: "status", Kind: KindText, Rules: "oneof=active expiring_soon expired"},
				{Name: "created_at", Kind: KindTimestamp},
			},
			ForeignKeys: []ForeignKey{
				{Column: "customer_id", Table: "customers"},
				{Column: "product_id", Table: "products"},
				{Column: "account_id", Table: "accounts"},
				{Column: "profile_id", Table: "profiles"},
			},
		},
		Origin{
			Kind:        Users,
			DisplayName: "Usuarios",
			Singular:    "Usuario",
			LabelField:  "name",
			Columns: []Column{
				{Name: "id", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "name", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "email", Kind: KindText, Required: true, Rules: "email"},
				{Name: "role_id", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "subscriber_id", Kind: KindText},
				{Name: "created_at", Kind: KindTimestamp},
			},
			ForeignKeys: []ForeignKey{{Column: "subscriber_id", Table: "subscribers"}},
		},
		Origin{
			Kind:        Subscribers,
			DisplayName: "Suscriptores",
			Singular:    "Suscriptor",
			LabelField:  "name",
			Columns: []Column{
				{Name: "id", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "name", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "email", Kind: KindText, Required: true, Rules: "email"},
				{Name: "status", Kind: KindText, Rules: "oneof=active inactive trial"},
				{Name: "start_date", Kind: KindTimestamp},
				{Name: "expiration_date", Kind: KindTimestamp},
				{Name: "whatsapp_instance_id", Kind: KindText},
				{Name: "reminder_days", Kind: KindIntArray},
				{Name: "reminder_template", Kind: KindText},
				{Name: "terms_conditions", Kind: KindText},
				{Name: "created_at", Kind: KindTimestamp},
			},
		},
		Origin{
			Kind:        PriceLists,
			DisplayName: "Listas de precios",
			Singular:    "Precio",
			Columns: []Column{
				{Name: "id", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "subscriber_id", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "product_id", Kind: KindText, Required: true, Rules: "min=1"},
				{Name: "price", Kind: KindDecimal, Required: true, Rules: "gte=0"},
				{Name: "created_at", Kind: KindTimestamp},
			},
			ForeignKeys: []ForeignKey{
				{Column: "subscriber_id", Table: "subscribers"},
				{Column: "product_id", Table: "products"},
			},
		},
	)
}
