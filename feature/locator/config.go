package locator

// Config holds the location of the inventory map.
type Config struct {
	// InventoryFile is the YAML list of hardware known to the locator.
	InventoryFile string `mapstructure:"inventory_file" default:"/usr/share/hw-isolation/inventory.yaml"`
}
