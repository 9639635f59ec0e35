package main

import (
	"errors"
	"log"
	"net/http"

	"ticketworld/src/utils"

	"github.com/gin-gonic/gin"
)

// abortWithDomainError maps domain errors onto the HTTP surface. Hidden
// resources and missing ones are indistinguishable to the caller.
func abortWithDomainError(ctx *gin.Context, err error) {
	var notFound *utils.NotFoundError
	if errors.As(err, &notFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	var forbidden *utils.ForbiddenError
	if errors.As(err, &forbidden) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	var validation *utils.ValidationError
	if errors.As(err, &validation) {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": validation.Messages})
		return
	}
	var conflict *utils.SeatConflictError
	if errors.As(err, &conflict) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reserved_seats": conflict.SeatIDs})
		return
	}
	var ineligible *utils.IneligibleEventError
	if errors.As(err, &ineligible) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var finalized *utils.AlreadyFinalizedError
	if errors.As(err, &finalized) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var failed *utils.PaymentFailedError
	if errors.As(err, &failed) {
		var innerConflict *utils.SeatConflictError
		if errors.As(failed.Inner, &innerConflict) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reserved_seats": innerConflict.SeatIDs})
			return
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Printf("unexpected error: %s\n", err.Error())
	ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
