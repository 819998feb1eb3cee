package model

// Permissions is the fixed set of per-feature switches attached to a user.
// The flags are independent of the role hierarchy: they gate access to whole
// feature areas of the office (contacts, demands, agenda, ...), not to
// individual actions within them.
type Permissions struct {
	Contatos    bool `json:"contatos"`
	Demandas    bool `json:"demandas"`
	Agenda      bool `json:"agenda"`
	Aliancas    bool `json:"aliancas"`
	Campanhas   bool `json:"campanhas"`
	Pesquisas   bool `json:"pesquisas"`
	RespostasIA bool `json:"respostas_ia"`
}

// Permission flag names, as used by RequirePermission guards and the
// permissions JSON stored per user.
const (
	PermContatos    = "contatos"
	PermDemandas    = "demandas"
	PermAgenda      = "agenda"
	PermAliancas    = "aliancas"
	PermCampanhas   = "campanhas"
	PermPesquisas   = "pesquisas"
	PermRespostasIA = "respostas_ia"
)

// DefaultPermissions returns the role-derived default permission set. It is
// total over the role set: unknown roles get the assessor defaults.
func DefaultPermissions(role string) Permissions {
	switch role {
	case RoleAdmin:
		return Permissions{
			Contatos:    true,
			Demandas:    true,
			Agenda:      true,
			Aliancas:    true,
			Campanhas:   true,
			Pesquisas:   true,
			RespostasIA: true,
		}
	case RoleCoordenador:
		return Permissions{
			Contatos:  true,
			Demandas:  true,
			Agenda:    true,
			Aliancas:  true,
			Campanhas: true,
			Pesquisas: true,
		}
	default:
		return Permissions{
			Contatos: true,
			Demandas: true,
			Agenda:   true,
		}
	}
}

// Has reports whether the named flag is set. Unknown flag names are false.
func (p Permissions) Has(flag string) bool {
	switch flag {
	case PermContatos:
		return p.Contatos
	case PermDemandas:
		return p.Demandas
	case PermAgenda:
		return p.Agenda
	case PermAliancas:
		return p.Aliancas
	case PermCampanhas:
		return p.Campanhas
	case PermPesquisas:
		return p.Pesquisas
	case PermRespostasIA:
		return p.RespostasIA
	}
	return false
}
