package domain

// DefaultConfig is the quiz served when nothing was shared or saved.
func DefaultConfig() QuizConfig {
	return QuizConfig{
		Title:     "Quiz de Aniversário de Noivado",
		Subtitle:  "Vamos testar suas memórias do nosso primeiro ano de noivado? ❤️",
		StartIcon: "?",
		Questions: []Question{
			{
				QuestionText: "Qual foi o local do nosso primeiro encontro?",
				Options: []Option{
					{Text: "Cinema"},
					{Text: "Parque da Cidade"},
					{Text: "Restaurante Italiano"},
					{Text: "Em casa"},
				},
				CorrectIndex: 1,
				Explanation:  "Foi no Parque da Cidade, um dia lindo que nunca vou esquecer! ❤️",
			},
			{
				QuestionText: "Qual é a minha linguagem do amor principal?",
				Options: []Option{
					{Text: "Palavras de Afirmação"},
					{Text: "Atos de Serviço"},
					{Text: "Tempo de Qualidade"},
					{Text: "Presentes"},
				},
				CorrectIndex: 2,
				Explanation:  "Amo cada segundo que passamos juntos, essa é a maior prova de amor para mim.",
			},
			{
				QuestionText: "Qual o nome do primeiro filme que vimos juntos?",
				Options: []Option{
					{Text: "Homem-Aranha: No Aranhaverso"},
					{Text: "Vingadores: Ultimato"},
					{Text: "O Rei Leão"},
					{Text: "Coringa"},
				},
				CorrectIndex: 0,
				Explanation:  "Sim! Vimos Homem-Aranha e foi incrível compartilhar essa experiência com você.",
			},
		},
		Prize: Prize{
			Title:    "Vale Jantar Romântico",
			Subtitle: "Um vale-jantar no nosso restaurante favorito para celebrarmos nosso amor!",
			Validity: "Válido para sempre, assim como nosso amor.",
		},
	}
}

// BlankConfig is the template the editor resets to.
func BlankConfig() QuizConfig {
	return QuizConfig{
		Title:     "Título do Quiz",
		Subtitle:  "Subtítulo do Quiz",
		StartIcon: "✏️",
		Questions: []Question{NewQuestion("Explicação da resposta.")},
		Prize: Prize{
			Title:    "Prêmio Final",
			Subtitle: "Descrição do prêmio",
			Validity: "Detalhes de validade",
		},
	}
}

// NewQuestion is the two-option question appended by the editor.
func NewQuestion(explanation string) Question {
	return Question{
		QuestionText: "Nova Pergunta",
		Options: []Option{
			{Text: "Opção Correta"},
			{Text: "Opção 2"},
		},
		CorrectIndex: 0,
		Explanation:  explanation,
	}
}
