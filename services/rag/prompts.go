// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rag

import (
	"fmt"

	"github.com/AleutianAI/docassist/services/orchestrator/datatypes"
)

// groundedSystemPrompt instructs the model to answer strictly from the
// retrieved context. The placeholder receives the formatted evidence.
const groundedSystemPrompt = `Você é um assistente útil que responde perguntas baseado em documentos fornecidos.

INSTRUÇÕES IMPORTANTES:
- Responda APENAS com base no contexto fornecido
- Se a informação não estiver no contexto, diga claramente que não encontrou a informação
- Cite o número da página quando possível
- Seja claro, conciso e objetivo
- Responda em português brasileiro

CONTEXTO:
%s

Responda à pergunta do usuário baseado apenas no contexto acima.`

// noRetrievalSystemPrompt handles greetings and general questions that
// bypass the index.
const noRetrievalSystemPrompt = `Você é um assistente útil especializado em responder perguntas sobre documentos PDF.

Se o usuário cumprimentar você, seja cordial e explique brevemente o que você pode fazer.
Se for uma pergunta que requer documentos, informe que nenhum documento foi encontrado ou carregado ainda.

Responda sempre em português brasileiro.`

// buildMessages assembles the chat sent to the LLM: system prompt,
// prior history, then the current query.
func buildMessages(qc QueryContext) []datatypes.Message {
	systemPrompt := noRetrievalSystemPrompt
	if qc.NeedsRetrieval && qc.Context != "" {
		systemPrompt = fmt.Sprintf(groundedSystemPrompt, qc.Context)
	}

	messages := make([]datatypes.Message, 0, len(qc.History)+2)
	messages = append(messages, datatypes.Message{Role: "system", Content: systemPrompt})
	messages = append(messages, qc.History...)
	messages = append(messages, datatypes.Message{Role: "user", Content: qc.Query})
	return messages
}
