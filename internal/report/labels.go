package report

// labels holds the translated strings of one report language.
type labels struct {
	Lang             string
	Title            string
	Generated        string
	Duration         string
	RunID            string
	Statistics       string
	SpaceFreed       string
	LocationsCleaned string
	ErrorsFixed      string
	DriversChecked   string
	Warnings         string
	SoftwareUpdated  string
	SystemInfo       string
	Operations       string
	NoOperations     string
	Log              string
	Time             string
	Level            string
	Message          string
	Field            string
	Value            string
	Recommendations  string
	Tips             []string
}

var english = labels{
	Lang:             "en",
	Title:            "System Maintenance Report",
	Generated:        "Generated",
	Duration:         "Duration",
	RunID:            "Run",
	Statistics:       "Statistics",
	SpaceFreed:       "Space freed",
	LocationsCleaned: "Locations cleaned",
	ErrorsFixed:      "Errors fixed",
	DriversChecked:   "Drivers checked",
	Warnings:         "Warnings",
	SoftwareUpdated:  "Software updated",
	SystemInfo:       "System information",
	Operations:       "Operations performed",
	NoOperations:     "No operations were performed.",
	Log:              "Full log",
	Time:             "Time",
	Level:            "Level",
	Message:          "Message",
	Field:            "Field",
	Value:            "Value",
	Recommendations:  "Recommendations",
	Tips: []string{
		"Run the cleanup pipeline weekly.",
		"Keep installed software up to date.",
		"Run the repair checks monthly.",
		"Restart the computer after repairs or updates.",
		"Keep at least 15% of the system disk free.",
	},
}

var portuguese = labels{
	Lang:             "pt-BR",
	Title:            "Relatório de Manutenção do Sistema",
	Generated:        "Gerado em",
	Duration:         "Duração",
	RunID:            "Execução",
	Statistics:       "Estatísticas",
	SpaceFreed:       "Espaço liberado",
	LocationsCleaned: "Locais limpos",
	ErrorsFixed:      "Erros corrigidos",
	DriversChecked:   "Drivers verificados",
	Warnings:         "Avisos",
	SoftwareUpdated:  "Programas atualizados",
	SystemInfo:       "Informações do sistema",
	Operations:       "Operações realizadas",
	NoOperations:     "Nenhuma operação foi realizada.",
	Log:              "Log completo",
	Time:             "Hora",
	Level:            "Nível",
	Message:          "Mensagem",
	Field:            "Campo",
	Value:            "Valor",
	Recommendations:  "Recomendações",
	Tips: []string{
		"Execute a limpeza semanalmente.",
		"Mantenha os programas atualizados.",
		"Execute as verificações de reparo mensalmente.",
		"Reinicie o computador após reparos ou atualizações.",
		"Mantenha pelo menos 15% do disco do sistema livre.",
	},
}

// labelsFor picks the labels of lang. Anything that is not Portuguese
// renders in English.
func labelsFor(lang string) labels {
	switch lang {
	case "pt_BR", "pt-BR", "pt":
		return portuguese
	default:
		return english
	}
}
