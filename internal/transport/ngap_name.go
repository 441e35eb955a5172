package transport

import "github.com/free5gc/ngap/ngapType"

// ngapMessageName names the NGAP message for logs and errors.
func ngapMessageName(pdu *ngapType.NGAPPDU) string {
	switch pdu.Present {
	case ngapType.NGAPPDUPresentInitiatingMessage:
		if pdu.InitiatingMessage == nil {
			return "Unknown"
		}

		return initiatingMessageName(pdu.InitiatingMessage.Value.Present)
	case ngapType.NGAPPDUPresentSuccessfulOutcome:
		return "Successful Outcome"
	case ngapType.NGAPPDUPresentUnsuccessfulOutcome:
		return "Unsuccessful Outcome"
	default:
		return "Unknown"
	}
}

// Only the AMF to RAN direction is named; an SDU handed to the decoder never
// carries the other one.
func initiatingMessageName(present int) string {
	switch present {
	case ngapType.InitiatingMessagePresentAMFConfigurationUpdate:
		return "AMF Configuration Update"
	case ngapType.InitiatingMessagePresentHandoverCancel:
		return "Handover Cancel"
	case ngapType.InitiatingMessagePresentHandoverRequest:
		return "Handover Request"
	case ngapType.InitiatingMessagePresentInitialContextSetupRequest:
		return "Initial Context Setup Request"
	case ngapType.InitiatingMessagePresentNGReset:
		return "NG Reset"
	case ngapType.InitiatingMessagePresentPDUSessionResourceModifyRequest:
		return "PDU Session Resource Modify Request"
	case ngapType.InitiatingMessagePresentPDUSessionResourceReleaseCommand:
		return "PDU Session Resource Release Command"
	case ngapType.InitiatingMessagePresentPDUSessionResourceSetupRequest:
		return "PDU Session Resource Setup Request"
	case ngapType.InitiatingMessagePresentUEContextModificationRequest:
		return "UE Context Modification Request"
	case ngapType.InitiatingMessagePresentUEContextReleaseCommand:
		return "UE Context Release Command"
	case ngapType.InitiatingMessagePresentAMFStatusIndication:
		return "AMF Status Indication"
	case ngapType.InitiatingMessagePresentDownlinkNASTransport:
		return "Downlink NAS Transport"
	case ngapType.InitiatingMessagePresentDownlinkRANConfigurationTransfer:
		return "Downlink RAN Configuration Transfer"
	case ngapType.InitiatingMessagePresentDownlinkRANStatusTransfer:
		return "Downlink RAN Status Transfer"
	case ngapType.InitiatingMessagePresentErrorIndication:
		return "Error Indication"
	case ngapType.InitiatingMessagePresentLocationReportingControl:
		return "Location Reporting Control"
	case ngapType.InitiatingMessagePresentOverloadStart:
		return "Overload Start"
	case ngapType.InitiatingMessagePresentOverloadStop:
		return "Overload Stop"
	case ngapType.InitiatingMessagePresentPaging:
		return "Paging"
	case ngapType.InitiatingMessagePresentTraceStart:
		return "Trace Start"
	case ngapType.InitiatingMessagePresentDeactivateTrace:
		return "Deactivate Trace"
	default:
		return "Unknown"
	}
}
