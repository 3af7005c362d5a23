package types

// Settings is the persisted application configuration, grouped by section.
// Each section is stored as a JSONB row keyed by section name.
type Settings struct {
	General       GeneralSettings      `json:"general"`
	Security      SecuritySettings     `json:"security"`
	Notifications NotificationSettings `json:"notifications"`
	Inventory     InventorySettings    `json:"inventory"`
	Orders        OrderSettings        `json:"orders"`
}

type GeneralSettings struct {
	SiteName        string `json:"siteName"`
	SiteDescription string `json:"siteDescription"`
	ContactEmail    string `json:"contactEmail"`
	Timezone        string `json:"timezone"`
	Language        string `json:"language"`
}

type SecuritySettings struct {
	SessionTimeout      int  `json:"sessionTimeout"`
	PasswordMinLength   int  `json:"passwordMinLength"`
	RequireSpecialChars bool `json:"requireSpecialChars"`
	RequireNumbers      bool `json:"requireNumbers"`
	MaxLoginAttempts    int  `json:"maxLoginAttempts"`
	LockoutDuration     int  `json:"lockoutDuration"`
}

type NotificationSettings struct {
	EmailNotifications bool `json:"emailNotifications"`
	LowStockAlerts     bool `json:"lowStockAlerts"`
	OrderNotifications bool `json:"orderNotifications"`
	ErrorAlerts        bool `json:"errorAlerts"`
}

type InventorySettings struct {
	DefaultLowStockThreshold int  `json:"defaultLowStockThreshold"`
	AutoReorderEnabled       bool `json:"autoReorderEnabled"`
	ReorderPoint             int  `json:"reorderPoint"`
}

type OrderSettings struct {
	DefaultStatus          string `json:"defaultStatus"`
	AutoFulfillDigital     bool   `json:"autoFulfillDigital"`
	RequireShippingAddress bool   `json:"requireShippingAddress"`
}

// DefaultSettings are used when no row exists yet for a section.
func DefaultSettings() Settings {
	return Settings{
		General: GeneralSettings{
			SiteName:        "Hongfa Admin",
			SiteDescription: "E-commerce Admin Dashboard",
			ContactEmail:    "admin@hongfagmbh.de",
			Timezone:        "Europe/Berlin",
			Language:        "en",
		},
		Security: SecuritySettings{
			SessionTimeout:      24,
			PasswordMinLength:   8,
			RequireSpecialChars: true,
			RequireNumbers:      true,
			MaxLoginAttempts:    5,
			LockoutDuration:     30,
		},
		Notifications: NotificationSettings{
			EmailNotifications: true,
			LowStockAlerts:     true,
			OrderNotifications: true,
			ErrorAlerts:        true,
		},
		Inventory: InventorySettings{
			DefaultLowStockThreshold: 10,
			AutoReorderEnabled:       false,
			ReorderPoint:             5,
		},
		Orders: OrderSettings{
			DefaultStatus:          OrderStatusPending,
			AutoFulfillDigital:     true,
			RequireShippingAddress: true,
		},
	}
}

type DatabaseStats struct {
	Tables   map[string]int `json:"tables"`
	Database struct {
		Size      string `json:"size"`
		SizeBytes int64  `json:"sizeBytes"`
	} `json:"database"`
}

type SystemInfo struct {
	Version      string `json:"version"`
	GoVersion    string `json:"goVersion"`
	Platform     string `json:"platform"`
	Architecture string `json:"architecture"`
	UptimeSecs   int64  `json:"uptime"`
	NumGoroutine int    `json:"numGoroutine"`
	Environment  string `json:"environment"`
}
