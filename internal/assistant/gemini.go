package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/genai"
)

// Gemini implements Assistant against the Gemini API.
type Gemini struct {
	config Config
	client *genai.Client

	mu              sync.Mutex
	lastAnalysis    time.Time
	lastDescription *SceneDescription
}

// NewGemini creates a Gemini assistant. Returns an APIError when the client
// cannot be constructed (for example an empty API key).
func NewGemini(ctx context.Context, config Config) (*Gemini, error) {
	if config.APIKey == "" {
		return nil, &APIError{Message: "api key is required"}
	}
	if config.Model == "" {
		config.Model = DefaultConfig().Model
	}
	if config.AnalysisCooldown <= 0 {
		config.AnalysisCooldown = DefaultConfig().AnalysisCooldown
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, wrapAPIError(err)
	}

	return &Gemini{
		config: config,
		client: client,
	}, nil
}

// DescribeScene analyzes the scene from the detection summary. Calls inside
// the analysis cooldown window return the cached last description.
func (g *Gemini) DescribeScene(ctx context.Context, detections string) (*SceneDescription, error) {
	g.mu.Lock()
	if g.lastDescription != nil && time.Since(g.lastAnalysis) < g.config.AnalysisCooldown {
		cached := g.lastDescription
		g.mu.Unlock()
		return cached, nil
	}
	g.mu.Unlock()

	prompt := fmt.Sprintf(`Eres un asistente visual para una persona ciega.
Tienes acceso a una lista de objetos detectados por sensores.

OBJETOS DETECTADOS: %s

Responde en español de forma MUY BREVE y CLARA:

1. RESUMEN: Frase corta de lo que hay.
2. CONSEJO DE NAVEGACIÓN: Basado en los peligros detectados.
3. PELIGROS: Lista de amenazas (si las hay).
4. DIRECCIÓN SEGURA: Dónde moverse.

Sé conciso.`, detections)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	description := parseSceneDescription(text)

	g.mu.Lock()
	g.lastAnalysis = time.Now()
	g.lastDescription = description
	g.mu.Unlock()

	return description, nil
}

// QuickDescription returns a one-sentence spoken summary of the scene.
func (g *Gemini) QuickDescription(ctx context.Context, detections string) (string, error) {
	prompt := fmt.Sprintf(`Resume en 1 oración qué hay alrededor para un ciego.
OBJETOS: %s
Idioma: Español.`, detections)

	return g.generate(ctx, prompt)
}

// Answer responds to a user question based only on the detected objects.
func (g *Gemini) Answer(ctx context.Context, detections string, question string) (string, error) {
	prompt := fmt.Sprintf(`Eres un asistente para una persona ciega.
OBJETOS DETECTADOS: %s

PREGUNTA USUARIO: %q

Responde basándote SOLO en los objetos detectados. Si no sabes, dilo.
Sé breve.`, detections, question)

	return g.generate(ctx, prompt)
}

// LastDescription returns the most recent scene description, if any.
func (g *Gemini) LastDescription() *SceneDescription {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastDescription
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(prompt), nil)
	if err != nil {
		return "", wrapAPIError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", &APIError{Message: "empty model response"}
	}
	return text, nil
}

func wrapAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Status: apiErr.Code, Message: apiErr.Message}
	}
	return &APIError{Message: err.Error()}
}
