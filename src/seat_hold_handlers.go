package main

import (
	"net/http"

	"ticketworld/src/db"
	"ticketworld/src/models"
	"ticketworld/src/policy"
	"ticketworld/src/types"
	"ticketworld/src/utils"

	"github.com/gin-gonic/gin"
)

func seatHoldHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/seat-holds", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var body types.CreateSeatHoldsRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			holds, err := utils.AddSeatHolds(userId, &body)
			if err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": holds, "count": len(holds)})
		}).
		GET("/reservations/:id/seat-holds", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			role := ctx.GetString("role")
			con := db.GetDb()
			var reservation models.Reservation
			if err := con.
				Preload("Event").
				Where(&models.Reservation{ID: params.ID}).
				First(&reservation).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
				return
			}
			actor := policy.Actor{ID: userId, Role: role}
			if policy.Check(actor, reservation, policy.ActionRead) != policy.Allow {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
				return
			}
			var holds []models.ReservationEventSeat
			if err := con.
				Preload("EventSeat").
				Where(&models.ReservationEventSeat{ReservationID: params.ID}).
				Find(&holds).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": holds, "count": len(holds)})
		}).
		DELETE("/reservations/:id/seat-holds", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			if err := utils.ReleaseHolds(userId, params.ID); err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			ctx.Status(http.StatusOK)
		}).
		DELETE("/seat-holds/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			if err := utils.DestroyHold(userId, params.ID); err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			ctx.Status(http.StatusOK)
		})
	return g
}
