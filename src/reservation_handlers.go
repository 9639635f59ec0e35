package main

import (
	"errors"
	"net/http"

	"ticketworld/src/db"
	"ticketworld/src/models"
	"ticketworld/src/policy"
	"ticketworld/src/types"
	"ticketworld/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func reservationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/reservations", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			data, err := utils.GetVisibleReservations(userId)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": data, "count": len(data)})
		}).
		GET("/reservations/statuses", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"data": []types.ReservationStatus{
				types.RESERVATION_CREATED,
				types.RESERVATION_INVALIDATED,
				types.RESERVATION_RESERVED,
			}})
		}).
		GET("/reservations/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			role := ctx.GetString("role")
			var reservation models.Reservation
			db := db.GetDb()
			if err := db.
				Preload("Event").
				Preload("EventSeats").
				Preload("EventSeats.EventSeat").
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
			ctx.JSON(http.StatusOK, gin.H{"data": reservation})
		}).
		POST("/reservations", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var body types.CreateReservationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			reservation, err := utils.CreateReservation(userId, body.EventID)
			if err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": reservation})
		}).
		DELETE("/reservations/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			role := ctx.GetString("role")
			con := db.GetDb()
			err := con.Transaction(func(tx *gorm.DB) error {
				var reservation models.Reservation
				if err := tx.
					Where(&models.Reservation{ID: params.ID}).
					First(&reservation).
					Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return &utils.NotFoundError{Resource: "reservation"}
					}
					return err
				}
				actor := policy.Actor{ID: userId, Role: role}
				switch policy.Check(actor, reservation, policy.ActionWrite) {
				case policy.DenyHidden:
					return &utils.NotFoundError{Resource: "reservation"}
				case policy.DenyForbidden:
					return &utils.ForbiddenError{Resource: "reservation"}
				}
				if reservation.Status != types.RESERVATION_CREATED {
					return &utils.ForbiddenError{Resource: "reservation"}
				}
				if err := tx.
					Unscoped().
					Where(&models.ReservationEventSeat{ReservationID: reservation.ID}).
					Delete(&models.ReservationEventSeat{}).
					Error; err != nil {
					return err
				}
				return tx.
					Model(&models.Reservation{}).
					Where("id = ? AND status = ?", reservation.ID, types.RESERVATION_CREATED).
					Update("status", types.RESERVATION_INVALIDATED).
					Error
			})
			if err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			ctx.Status(http.StatusOK)
		}).
		PUT("/reservations/:id", func(ctx *gin.Context) {
			ctx.Status(http.StatusMethodNotAllowed)
		}).
		PATCH("/reservations/:id", func(ctx *gin.Context) {
			ctx.Status(http.StatusMethodNotAllowed)
		})
	return g
}
