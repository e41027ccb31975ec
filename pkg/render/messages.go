package render

// Messages are the short user-facing strings shown in place of a summary.
type Messages struct {
	Progress      string `yaml:"progress"`
	DateInvalid   string `yaml:"date_invalid"`
	TopicUnknown  string `yaml:"topic_unknown"`
	ServiceError  string `yaml:"service_error"`
	UnknownStatus string `yaml:"unknown_status"`
	Timeout       string `yaml:"timeout"`
	Transport     string `yaml:"transport"`
}

// DefaultMessages are the forum's French strings.
func DefaultMessages() Messages {
	return Messages{
		Progress:      "Résumé en cours de création. Cela peut prendre plusieurs minutes.",
		DateInvalid:   "Seuls les résumés d'hier et des jours précédents sont disponibles",
		TopicUnknown:  "Impossible de déterminer l'identifiant du topic",
		ServiceError:  "Une erreur s'est produite, réessayez plus tard.",
		UnknownStatus: "Statut inconnu.",
		Timeout:       "La génération prend plus de temps que prévu. Revenez un peu plus tard.",
		Transport:     "Erreur de communication avec le serveur",
	}
}

// Merge returns m with empty fields filled from defaults.
func (m Messages) Merge(defaults Messages) Messages {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&m.Progress, defaults.Progress)
	fill(&m.DateInvalid, defaults.DateInvalid)
	fill(&m.TopicUnknown, defaults.TopicUnknown)
	fill(&m.ServiceError, defaults.ServiceError)
	fill(&m.UnknownStatus, defaults.UnknownStatus)
	fill(&m.Timeout, defaults.Timeout)
	fill(&m.Transport, defaults.Transport)
	return m
}

// ProgressHTML is the progress indicator fragment.
func ProgressHTML(msg string) string {
	return `<div class="spinner"></div>` + escaper.Replace(msg)
}
