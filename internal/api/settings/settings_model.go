package settings

import "github.com/hongfa/admin-api/internal/types"

// UpdateSettingsParams carries a partial settings update. Sections left nil
// keep their stored values.
type UpdateSettingsParams struct {
	General       *types.GeneralSettings      `json:"general"`
	Security      *types.SecuritySettings     `json:"security"`
	Notifications *types.NotificationSettings `json:"notifications"`
	Inventory     *types.InventorySettings    `json:"inventory"`
	Orders        *types.OrderSettings        `json:"orders"`
}
