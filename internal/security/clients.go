package security

// In-memory client registry (replace with DB/config later)
type Client struct {
	ID      string
	Secret  string
	Perms   []string // e.g. {"cart.read","cart.write"}
	Enabled bool
}

var Clients = map[string]Client{
	"storefront": {ID: "storefront", Secret: "storefront-secret", Perms: []string{"cart.read", "cart.write", "scan.write"}, Enabled: true},
	"admin-pos":  {ID: "admin-pos", Secret: "admin-pos-secret", Perms: []string{"cart.read", "cart.write", "scan.write", "scans.read"}, Enabled: true},
	"svc-report": {ID: "svc-report", Secret: "report-secret", Perms: []string{"scans.read"}, Enabled: true},
}
