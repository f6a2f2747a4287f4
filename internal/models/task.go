package models

import (
	"fmt"
	"strings"
)

// TaskType is the kind of task the fine-tuned model is trained for.
type TaskType string

const (
	TaskClassify     TaskType = "classify"
	TaskQA           TaskType = "qa"
	TaskConversation TaskType = "conversation"
	TaskGeneration   TaskType = "generation"
	TaskExtraction   TaskType = "extraction"
)

// AllTasks lists every task in declaration order.
var AllTasks = []TaskType{TaskClassify, TaskQA, TaskConversation, TaskGeneration, TaskExtraction}

// Valid reports whether t is one of the known tasks.
func (t TaskType) Valid() bool {
	for _, v := range AllTasks {
		if v == t {
			return true
		}
	}
	return false
}

func (t TaskType) String() string { return string(t) }

// ParseTaskType converts a flag or request value to a TaskType.
func ParseTaskType(s string) (TaskType, error) {
	t := TaskType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("invalid task %q: must be one of %s", s, joinValues(AllTasks))
	}
	return t, nil
}

// DeploymentTarget is where the trained model will run.
type DeploymentTarget string

const (
	DeployCloud   DeploymentTarget = "cloud"
	DeployMobile  DeploymentTarget = "mobile"
	DeployEdge    DeploymentTarget = "edge"
	DeployBrowser DeploymentTarget = "browser"
	DeployDesktop DeploymentTarget = "desktop"
	DeployServer  DeploymentTarget = "server"
)

// AllDeployments lists every deployment target in declaration order.
var AllDeployments = []DeploymentTarget{DeployCloud, DeployMobile, DeployEdge, DeployBrowser, DeployDesktop, DeployServer}

// Valid reports whether d is one of the known deployment targets.
func (d DeploymentTarget) Valid() bool {
	for _, v := range AllDeployments {
		if v == d {
			return true
		}
	}
	return false
}

// IsEdgeClass reports whether d is a footprint-constrained target
// (edge, mobile or browser).
func (d DeploymentTarget) IsEdgeClass() bool {
	return d == DeployEdge || d == DeployMobile || d == DeployBrowser
}

func (d DeploymentTarget) String() string { return string(d) }

// ParseDeploymentTarget converts a flag or request value to a DeploymentTarget.
func ParseDeploymentTarget(s string) (DeploymentTarget, error) {
	d := DeploymentTarget(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("invalid deployment %q: must be one of %s", s, joinValues(AllDeployments))
	}
	return d, nil
}

func joinValues[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
