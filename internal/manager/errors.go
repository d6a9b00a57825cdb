package manager

import "errors"

var (
	ErrDeploymentNotFound      = errors.New("no active deployment for slot")
	ErrDeploymentAlreadyActive = errors.New("slot already has an active deployment")
	ErrNoChanges               = errors.New("requested transition changes nothing")
	ErrArtifactNotFound        = errors.New("no active artifact for group and name")
	ErrArtifactoryNotFound     = errors.New("artifactory not found")

	ErrGetDeploymentDB    = errors.New("error getting deployment")
	ErrCreateDeploymentDB = errors.New("error creating deployment")
	ErrUpdateDeploymentDB = errors.New("error updating deployment")
	ErrListDeploymentsDB  = errors.New("error listing deployments")
	ErrGetReferenceDB     = errors.New("error getting reference entity")
	ErrCreateReferenceDB  = errors.New("error creating reference entity")
	ErrGetArtifactDB      = errors.New("error getting artifact")
	ErrCreateArtifactDB   = errors.New("error creating artifact")
	ErrUpdateArtifactDB   = errors.New("error updating artifact")

	// errLostRace marks a guarded deactivate that wrote zero rows because a
	// concurrent writer superseded the row first. The transition is retried
	// once against re-read state before surfacing a storage error.
	errLostRace = errors.New("lost supersession race")
)
