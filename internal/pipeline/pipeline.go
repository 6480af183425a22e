// Package pipeline orchestrates one enforcement pass over a turn's pending
// messages: classify each player line, gate on confidence, validate against
// live character state, execute what survives, and assemble the narration
// context the text-generation collaborator receives.
//
// Messages are processed strictly in order. Each validator reads state the
// previous executor already committed, so two purchases in one turn cannot
// double-spend the same coins.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/turnforge/internal/intent"
	"github.com/louisbranch/turnforge/internal/mechanics"
	"github.com/louisbranch/turnforge/internal/mechanics/execute"
	"github.com/louisbranch/turnforge/internal/mechanics/validate"
	"github.com/louisbranch/turnforge/internal/storage"
	"github.com/louisbranch/turnforge/internal/telemetry"
)

// Message is one pending player line awaiting mechanical enforcement.
type Message struct {
	PlayerID    string
	CharacterID string
	Content     string
}

// Result aggregates one full pass. Success holds unless every attempted
// mechanic failed: a turn with at least one applied change is not a pipeline
// failure even when siblings failed.
type Result struct {
	IntentsProcessed int
	MechanicsApplied int
	MechanicsFailed  int
	Changes          []mechanics.StateChange
	RollsRequired    []mechanics.DiceRollRequest
	Narrative        string
	Success          bool
}

// Pipeline wires the classifier, validators, and executors over the record
// stores.
type Pipeline struct {
	classifier *intent.Classifier
	validator  *validate.Router
	executor   *execute.Router
	characters storage.CharacterStore
	scenes     storage.SceneStore
	emitter    *telemetry.Emitter
	tracer     trace.Tracer
}

// New builds a pipeline.
func New(classifier *intent.Classifier, validator *validate.Router, executor *execute.Router,
	characters storage.CharacterStore, scenes storage.SceneStore, emitter *telemetry.Emitter) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		validator:  validator,
		executor:   executor,
		characters: characters,
		scenes:     scenes,
		emitter:    emitter,
		tracer:     otel.Tracer("turnforge/pipeline"),
	}
}

// ProcessTurn runs the enforcement pass for one turn's messages.
func (p *Pipeline) ProcessTurn(ctx context.Context, sceneID string, messages []Message) (Result, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.process_turn",
		trace.WithAttributes(
			attribute.String("scene_id", sceneID),
			attribute.Int("message_count", len(messages)),
		))
	defer span.End()

	scene, err := p.scenes.GetScene(ctx, sceneID)
	if err != nil {
		return Result{}, err
	}

	var result Result
	var lines []string
	for _, msg := range messages {
		line := p.processMessage(ctx, scene, msg, &result)
		if line != "" {
			lines = append(lines, line)
		}
	}

	result.Narrative = strings.Join(lines, "\n")
	result.Success = result.MechanicsFailed == 0 || result.MechanicsApplied > 0

	span.SetAttributes(
		attribute.Int("intents_processed", result.IntentsProcessed),
		attribute.Int("mechanics_applied", result.MechanicsApplied),
		attribute.Int("mechanics_failed", result.MechanicsFailed),
	)
	_ = p.emitter.Emit(ctx, telemetry.SeverityInfo, "pipeline.turn_processed", map[string]string{
		"scene_id": sceneID,
		"applied":  itoa(result.MechanicsApplied),
		"failed":   itoa(result.MechanicsFailed),
	})
	return result, nil
}

func (p *Pipeline) processMessage(ctx context.Context, scene storage.SceneRecord, msg Message, result *Result) string {
	ctx, span := p.tracer.Start(ctx, "pipeline.process_message",
		trace.WithAttributes(attribute.String("character_id", msg.CharacterID)))
	defer span.End()

	ch, err := p.characters.GetCharacter(ctx, msg.CharacterID)
	if err != nil {
		// A message without a resolvable character cannot be enforced;
		// it rides along as unattributed color.
		log.Printf("pipeline: character %s unresolvable: %v", msg.CharacterID, err)
		return fmt.Sprintf("(unattributed) %s", msg.Content)
	}

	ci := p.classifier.Classify(ctx, ch.ID, ch.Name, msg.Content)
	result.IntentsProcessed++
	span.SetAttributes(
		attribute.String("intent_type", string(ci.Type)),
		attribute.Float64("confidence", ci.Confidence),
	)

	if !intent.ShouldProcessMechanics(ci) {
		return fmt.Sprintf("%s: %s", ch.Name, msg.Content)
	}

	party, err := p.characters.ListCharactersByCampaign(ctx, ch.CampaignID)
	if err != nil {
		log.Printf("pipeline: party lookup for %s failed: %v", ch.CampaignID, err)
	}

	v := p.validator.Validate(ci, validate.Context{Character: ch, Scene: scene, Party: party})
	if !v.Valid() {
		result.MechanicsFailed++
		return rejectionLine(ch.Name, msg.Content, v.Errors)
	}

	res, err := p.executor.Execute(ctx, ci, v)
	if err != nil {
		result.MechanicsFailed++
		log.Printf("pipeline: execute %s for %s failed: %v", ci.Type, ch.ID, err)
		return rejectionLine(ch.Name, msg.Content, []string{"the attempt could not be recorded"})
	}
	if !res.Success {
		result.MechanicsFailed++
		return rejectionLine(ch.Name, msg.Content, res.Errors)
	}

	result.MechanicsApplied++
	result.Changes = append(result.Changes, res.Changes...)
	result.RollsRequired = append(result.RollsRequired, res.RollsRequired...)

	line := fmt.Sprintf("%s: %s [APPLIED: %s]", ch.Name, msg.Content, res.NarrativeContext)
	for _, warning := range v.Warnings {
		line += fmt.Sprintf(" (note: %s)", warning)
	}
	return line
}

// rejectionLine is deliberately forceful: narrators tend to invent success,
// so the blocked verdict is spelled out in terms they cannot soften.
func rejectionLine(name, content string, errors []string) string {
	return fmt.Sprintf("TRANSACTION REJECTED for %s: %s — %s. Narrate this as a FAILED attempt. Do NOT describe it succeeding.",
		name, content, strings.Join(errors, "; "))
}

func itoa(n int) string { return strconv.Itoa(n) }
