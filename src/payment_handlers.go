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

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/reservations/:id/payment-successful", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			var body types.ConfirmPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			reservation, err := utils.ConfirmPayment(userId, params.ID, body.PaymentID)
			if err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservation})
		}).
		GET("/reservations/:id/final-validation", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			if err := utils.FinalValidation(userId, params.ID); err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"valid": true})
		}).
		GET("/reservations/:id/ticket", func(ctx *gin.Context) {
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
			if reservation.Status != types.RESERVATION_RESERVED {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "reservation has no ticket yet"})
				return
			}
			summary, err := reservation.GetSummary(con)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if ctx.Query("format") == "qr" {
				filepath, err := utils.GenerateTicketQR(summary.TicketNumber)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				ctx.FileAttachment(filepath, "eticket.jpeg")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": summary})
		})
	return g
}
